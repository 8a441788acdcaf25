// webhooks.go - Outbound notifications for recorded and regressed coverage.
//
// Receivers are configured as a comma-separated URL list. Deliveries are
// asynchronous so a slow receiver never delays the ingest response.
package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// WebhookEvent represents the type of event that triggers a webhook.
type WebhookEvent string

const (
	// WebhookEventSummaryRecorded fires after every accepted summary.
	WebhookEventSummaryRecorded WebhookEvent = "summary.recorded"

	// WebhookEventCoverageRegressed fires when line coverage drops more
	// than the configured threshold against the previous summary.
	WebhookEventCoverageRegressed WebhookEvent = "coverage.regressed"
)

// WebhookPayload is the JSON body sent to every receiver.
type WebhookPayload struct {
	Event     WebhookEvent   `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// WebhookDispatcher fans events out to the configured receiver URLs.
type WebhookDispatcher struct {
	urls   []string
	secret string
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker

	// wg lets tests wait for in-flight deliveries.
	wg sync.WaitGroup
}

// NewWebhookDispatcher builds a dispatcher for the given receiver URLs.
// An empty URL list returns nil, which disables webhooks entirely.
func NewWebhookDispatcher(urls []string, secret string) *WebhookDispatcher {
	if len(urls) == 0 {
		return nil
	}
	return &WebhookDispatcher{
		urls:     urls,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Dispatch sends the event to every receiver asynchronously.
func (d *WebhookDispatcher) Dispatch(event WebhookEvent, data map[string]any) {
	payload := WebhookPayload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("msg=webhook_marshal event=%s err=%v", event, err)
		return
	}

	for _, url := range d.urls {
		d.wg.Add(1)
		go func(url string) {
			defer d.wg.Done()
			d.deliver(url, payload, body)
		}(url)
	}
}

// Wait blocks until all in-flight deliveries finish.
func (d *WebhookDispatcher) Wait() {
	d.wg.Wait()
}

// deliver sends one payload to one receiver with retries behind its breaker.
func (d *WebhookDispatcher) deliver(url string, payload WebhookPayload, body []byte) {
	cb := d.breakerFor(url)

	const maxRetries = 3
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			time.Sleep(time.Duration(attempt*attempt) * time.Second)
		}

		err := cb.Execute(func() error {
			return d.send(url, payload, body)
		})
		if err == nil {
			getMetrics().recordWebhook(true)
			return
		}
		if err == ErrCircuitOpen || err == ErrTooManyRequests {
			// No point retrying while the breaker rejects us.
			break
		}
		log.Printf("msg=webhook_delivery url=%s event=%s attempt=%d err=%v",
			url, payload.Event, attempt+1, err)
	}

	getMetrics().recordWebhook(false)
	Warn("webhook_failed", map[string]any{
		"url":   url,
		"event": string(payload.Event),
	})
}

func (d *WebhookDispatcher) send(url string, payload WebhookPayload, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CoverageBoard-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", string(payload.Event))
	req.Header.Set("X-Webhook-Timestamp", payload.Timestamp.Format(time.RFC3339))

	if d.secret != "" {
		req.Header.Set("X-Webhook-Signature", signPayload(body, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &webhookStatusError{url: url, status: resp.StatusCode}
	}
	return nil
}

func (d *WebhookDispatcher) breakerFor(url string) *CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.breakers[url]
	if !ok {
		// 5 failures trip the breaker, retry the receiver after a minute.
		cb = NewCircuitBreaker(5, time.Minute)
		d.breakers[url] = cb
	}
	return cb
}

// signPayload creates the HMAC-SHA256 signature receivers use to verify
// the sender.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type webhookStatusError struct {
	url    string
	status int
}

func (e *webhookStatusError) Error() string {
	return "webhook receiver " + e.url + " returned status " + http.StatusText(e.status)
}
