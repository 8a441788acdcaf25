// prometheus.go - Prometheus text-format exporter for the internal counters.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

var serverStartTime = time.Now()

// prometheusHandler serves GET /metrics in Prometheus exposition format.
func prometheusHandler(version string) http.Handler {
	if version == "" {
		version = "dev"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := getMetrics().snapshot()

		var out strings.Builder

		out.WriteString("# HELP cvb_info Application version info\n")
		out.WriteString("# TYPE cvb_info gauge\n")
		fmt.Fprintf(&out, "cvb_info{version=\"%s\"} 1\n\n", promLabel(version))

		counter := func(name, help string, value int64) {
			fmt.Fprintf(&out, "# HELP %s %s\n", name, help)
			fmt.Fprintf(&out, "# TYPE %s counter\n", name)
			fmt.Fprintf(&out, "%s %d\n\n", name, value)
		}

		counter("cvb_requests_total", "Total number of HTTP requests", snap.RequestsTotal)
		counter("cvb_request_errors_4xx_total", "HTTP requests answered with 4xx", snap.RequestErrors4xx)
		counter("cvb_request_errors_5xx_total", "HTTP requests answered with 5xx", snap.RequestErrors5xx)
		counter("cvb_summaries_ingested_total", "Coverage summaries recorded", snap.SummariesIngestedTotal)
		counter("cvb_ingest_errors_total", "Failed summary ingest attempts", snap.IngestErrorsTotal)
		counter("cvb_queries_total", "Summary read queries served", snap.QueriesTotal)
		counter("cvb_badges_served_total", "Coverage badges served", snap.BadgesServedTotal)
		counter("cvb_dashboard_renders_total", "Dashboard page renders", snap.DashboardRendersTotal)
		counter("cvb_reports_archived_total", "Raw reports archived", snap.ReportsArchivedTotal)
		counter("cvb_report_bytes_total", "Raw report bytes archived", snap.ReportBytesTotal)
		counter("cvb_archive_errors_total", "Failed report archive attempts", snap.ArchiveErrorsTotal)
		counter("cvb_webhooks_sent_total", "Webhook deliveries that succeeded", snap.WebhooksSentTotal)
		counter("cvb_webhooks_failed_total", "Webhook deliveries that failed", snap.WebhooksFailedTotal)

		out.WriteString("# HELP cvb_uptime_seconds Application uptime in seconds\n")
		out.WriteString("# TYPE cvb_uptime_seconds counter\n")
		fmt.Fprintf(&out, "cvb_uptime_seconds %.0f\n", time.Since(serverStartTime).Seconds())

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.String()))
	})
}

// promLabel escapes a label value for the exposition format.
func promLabel(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	return value
}
