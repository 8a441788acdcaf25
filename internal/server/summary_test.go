package server

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func validTestSummary() CoverageSummary {
	return CoverageSummary{
		Branch:   Coverage{Covered: 40, Total: 80, Percent: 50},
		Function: Coverage{Covered: 18, Total: 20, Percent: 90},
		Line:     Coverage{Covered: 850, Total: 1000, Percent: 85},
	}
}

func TestCoverageSummary_WireFormat(t *testing.T) {
	b, err := json.Marshal(validTestSummary())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// The wire format is flat prefixed keys, not nested sections.
	var flat map[string]json.Number
	if err := json.Unmarshal(b, &flat); err != nil {
		t.Fatalf("wire payload is not a flat object: %v", err)
	}

	expected := []string{
		"branch_covered", "branch_total", "branch_percent",
		"function_covered", "function_total", "function_percent",
		"line_covered", "line_total", "line_percent",
	}
	for _, key := range expected {
		if _, ok := flat[key]; !ok {
			t.Errorf("Expected wire key %q to be present", key)
		}
	}
	if len(flat) != len(expected) {
		t.Errorf("Expected %d wire keys, got %d", len(expected), len(flat))
	}

	if flat["line_covered"].String() != "850" {
		t.Errorf("Expected line_covered=850, got %s", flat["line_covered"])
	}
}

func TestCoverageSummary_RoundTrip(t *testing.T) {
	in := validTestSummary()

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out CoverageSummary
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if out != in {
		t.Errorf("Round trip changed value: got %+v, want %+v", out, in)
	}
}

func TestCoverageSummary_MissingFields(t *testing.T) {
	full := `{"branch_covered":1,"branch_total":2,"branch_percent":50,` +
		`"function_covered":3,"function_total":4,"function_percent":75,` +
		`"line_covered":5,"line_total":6,"line_percent":83.3}`

	// Every single dropped key must fail the decode.
	keys := []string{
		"branch_covered", "branch_total", "branch_percent",
		"function_covered", "function_total", "function_percent",
		"line_covered", "line_total", "line_percent",
	}

	for _, key := range keys {
		t.Run("missing_"+key, func(t *testing.T) {
			var obj map[string]any
			if err := json.Unmarshal([]byte(full), &obj); err != nil {
				t.Fatal(err)
			}
			delete(obj, key)
			b, _ := json.Marshal(obj)

			var out CoverageSummary
			err := json.Unmarshal(b, &out)
			if !errors.Is(err, errSummaryIncomplete) {
				t.Errorf("Expected errSummaryIncomplete, got %v", err)
			}
		})
	}
}

func TestCoverageSummary_ZeroValuesAreValid(t *testing.T) {
	// A fresh repo with no branches reports zeros; zeros are not "missing".
	payload := `{"branch_covered":0,"branch_total":0,"branch_percent":0,` +
		`"function_covered":0,"function_total":0,"function_percent":0,` +
		`"line_covered":0,"line_total":0,"line_percent":0}`

	var out CoverageSummary
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		t.Errorf("Expected zero-valued summary to decode, got %v", err)
	}
}

func TestSummaryRecord_MarshalUnixTime(t *testing.T) {
	rec := SummaryRecord{
		InsertTime: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		Org:        "infra",
		Repo:       "gateway",
		Coverage:   validTestSummary(),
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(b)
	if !strings.Contains(s, `"insert_time":1710498600`) {
		t.Errorf("Expected unix-seconds insert_time in %s", s)
	}
	if !strings.Contains(s, `"org":"infra"`) || !strings.Contains(s, `"repo":"gateway"`) {
		t.Errorf("Expected org and repo fields in %s", s)
	}
	if !strings.Contains(s, `"line_percent":85`) {
		t.Errorf("Expected flattened coverage in %s", s)
	}
}
