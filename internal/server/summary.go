package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Coverage is one section of a GCOV summary report: how many cases were
// covered out of how many, and the resulting percentage.
type Coverage struct {
	Covered int64
	Total   int64
	Percent float64
}

// CoverageSummary is a GCOV JSON summary report. On the wire the three
// sections are flattened into prefixed keys ("branch_covered",
// "function_total", "line_percent", ...) because that is what gcov emits;
// the custom codec below preserves that shape exactly.
type CoverageSummary struct {
	Branch   Coverage
	Function Coverage
	Line     Coverage
}

// summaryWire mirrors the flat gcov field layout. Pointers distinguish a
// genuinely absent field from a zero value during decoding.
type summaryWire struct {
	BranchCovered   *int64   `json:"branch_covered"`
	BranchTotal     *int64   `json:"branch_total"`
	BranchPercent   *float64 `json:"branch_percent"`
	FunctionCovered *int64   `json:"function_covered"`
	FunctionTotal   *int64   `json:"function_total"`
	FunctionPercent *float64 `json:"function_percent"`
	LineCovered     *int64   `json:"line_covered"`
	LineTotal       *int64   `json:"line_total"`
	LinePercent     *float64 `json:"line_percent"`
}

var errSummaryIncomplete = errors.New("summary is missing required fields")

func (c CoverageSummary) MarshalJSON() ([]byte, error) {
	w := summaryWire{
		BranchCovered:   &c.Branch.Covered,
		BranchTotal:     &c.Branch.Total,
		BranchPercent:   &c.Branch.Percent,
		FunctionCovered: &c.Function.Covered,
		FunctionTotal:   &c.Function.Total,
		FunctionPercent: &c.Function.Percent,
		LineCovered:     &c.Line.Covered,
		LineTotal:       &c.Line.Total,
		LinePercent:     &c.Line.Percent,
	}
	return json.Marshal(w)
}

func (c *CoverageSummary) UnmarshalJSON(b []byte) error {
	var w summaryWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	fields := []*int64{w.BranchCovered, w.BranchTotal, w.FunctionCovered, w.FunctionTotal, w.LineCovered, w.LineTotal}
	for _, f := range fields {
		if f == nil {
			return errSummaryIncomplete
		}
	}
	if w.BranchPercent == nil || w.FunctionPercent == nil || w.LinePercent == nil {
		return errSummaryIncomplete
	}

	c.Branch = Coverage{Covered: *w.BranchCovered, Total: *w.BranchTotal, Percent: *w.BranchPercent}
	c.Function = Coverage{Covered: *w.FunctionCovered, Total: *w.FunctionTotal, Percent: *w.FunctionPercent}
	c.Line = Coverage{Covered: *w.LineCovered, Total: *w.LineTotal, Percent: *w.LinePercent}
	return nil
}

// SummaryRecord is one row of the summary table. insert_time serializes as
// unix seconds, which is what the ingesting CI tooling expects back.
type SummaryRecord struct {
	InsertTime time.Time
	Org        string
	Repo       string
	Coverage   CoverageSummary
}

func (r SummaryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		InsertTime int64           `json:"insert_time"`
		Org        string          `json:"org"`
		Repo       string          `json:"repo"`
		Coverage   CoverageSummary `json:"coverage"`
	}{
		InsertTime: r.InsertTime.Unix(),
		Org:        r.Org,
		Repo:       r.Repo,
		Coverage:   r.Coverage,
	})
}

// insertSummary appends one summary row. Rows are immutable; history is the
// point of the table.
func insertSummary(ctx context.Context, db *sql.DB, org, repo string, c CoverageSummary) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO summary (insert_time, org, repo, coverage) VALUES (now(), $1, $2, $3)`,
		org, repo, payload,
	)
	return err
}

var errNoSummary = errors.New("no summary recorded")

func scanSummaryRow(rows interface {
	Scan(dest ...any) error
}) (SummaryRecord, error) {
	var rec SummaryRecord
	var raw []byte
	if err := rows.Scan(&rec.InsertTime, &rec.Org, &rec.Repo, &raw); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec.Coverage); err != nil {
		return rec, err
	}
	return rec, nil
}

// latestSummary returns the most recent summary for one repository.
func latestSummary(ctx context.Context, db *sql.DB, org, repo string) (SummaryRecord, error) {
	row := db.QueryRowContext(ctx,
		`SELECT insert_time, org, repo, coverage
		   FROM summary
		  WHERE org = $1 AND repo = $2
		  ORDER BY insert_time DESC
		  LIMIT 1`,
		org, repo,
	)
	rec, err := scanSummaryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, errNoSummary
	}
	return rec, err
}

// summaryHistory returns up to limit summaries for a repository, newest first.
func summaryHistory(ctx context.Context, db *sql.DB, org, repo string, limit int) ([]SummaryRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT insert_time, org, repo, coverage
		   FROM summary
		  WHERE org = $1 AND repo = $2
		  ORDER BY insert_time DESC
		  LIMIT $3`,
		org, repo, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		rec, err := scanSummaryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// latestPerRepo returns the newest summary for every (org, repo) pair. This
// is the dashboard's dataset.
func latestPerRepo(ctx context.Context, db *sql.DB) ([]SummaryRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT ON (org, repo) insert_time, org, repo, coverage
		   FROM summary
		  ORDER BY org, repo, insert_time DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		rec, err := scanSummaryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
