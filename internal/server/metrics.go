package server

import (
	"sync"
)

// metrics holds in-process application counters.
type metrics struct {
	mu sync.RWMutex

	// Ingest metrics
	summariesIngestedTotal int64
	ingestErrorsTotal      int64

	// Read-side metrics
	queriesTotal           int64
	badgesServedTotal      int64
	dashboardRendersTotal  int64

	// Archive metrics
	reportsArchivedTotal int64
	reportBytesTotal     int64
	archiveErrorsTotal   int64

	// Webhook metrics
	webhooksSentTotal   int64
	webhooksFailedTotal int64

	// System metrics
	requestsTotal    int64
	requestErrors5xx int64
	requestErrors4xx int64
}

var globalMetrics = &metrics{}

func getMetrics() *metrics {
	return globalMetrics
}

func (m *metrics) recordIngest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summariesIngestedTotal++
}

func (m *metrics) recordIngestError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingestErrorsTotal++
}

func (m *metrics) recordQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queriesTotal++
}

func (m *metrics) recordBadge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.badgesServedTotal++
}

func (m *metrics) recordDashboardRender() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboardRendersTotal++
}

func (m *metrics) recordArchive(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportsArchivedTotal++
	m.reportBytesTotal += bytes
}

func (m *metrics) recordArchiveError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archiveErrorsTotal++
}

func (m *metrics) recordWebhook(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.webhooksSentTotal++
	} else {
		m.webhooksFailedTotal++
	}
}

func (m *metrics) recordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// snapshot returns a point-in-time copy of all counters.
func (m *metrics) snapshot() metricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return metricsSnapshot{
		SummariesIngestedTotal: m.summariesIngestedTotal,
		IngestErrorsTotal:      m.ingestErrorsTotal,
		QueriesTotal:           m.queriesTotal,
		BadgesServedTotal:      m.badgesServedTotal,
		DashboardRendersTotal:  m.dashboardRendersTotal,
		ReportsArchivedTotal:   m.reportsArchivedTotal,
		ReportBytesTotal:       m.reportBytesTotal,
		ArchiveErrorsTotal:     m.archiveErrorsTotal,
		WebhooksSentTotal:      m.webhooksSentTotal,
		WebhooksFailedTotal:    m.webhooksFailedTotal,
		RequestsTotal:          m.requestsTotal,
		RequestErrors5xx:       m.requestErrors5xx,
		RequestErrors4xx:       m.requestErrors4xx,
	}
}

type metricsSnapshot struct {
	SummariesIngestedTotal int64 `json:"summaries_ingested_total"`
	IngestErrorsTotal      int64 `json:"ingest_errors_total"`
	QueriesTotal           int64 `json:"queries_total"`
	BadgesServedTotal      int64 `json:"badges_served_total"`
	DashboardRendersTotal  int64 `json:"dashboard_renders_total"`
	ReportsArchivedTotal   int64 `json:"reports_archived_total"`
	ReportBytesTotal       int64 `json:"report_bytes_total"`
	ArchiveErrorsTotal     int64 `json:"archive_errors_total"`
	WebhooksSentTotal      int64 `json:"webhooks_sent_total"`
	WebhooksFailedTotal    int64 `json:"webhooks_failed_total"`
	RequestsTotal          int64 `json:"requests_total"`
	RequestErrors5xx       int64 `json:"request_errors_5xx"`
	RequestErrors4xx       int64 `json:"request_errors_4xx"`
}
