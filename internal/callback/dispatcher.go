package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/domain"
	"github.com/phrazzld/docgen-api/internal/events"
	"github.com/phrazzld/docgen-api/internal/redact"
)

// DefaultTimeout bounds a single delivery when none is configured.
const DefaultTimeout = 10 * time.Second

// Payload is the JSON body POSTed to the caller's webhook.
type Payload struct {
	RequestID   string               `json:"request_id,omitempty"`
	DocType     domain.DocType       `json:"doc_type,omitempty"`
	Status      domain.OutcomeStatus `json:"status"`
	DocumentURL string               `json:"document_url,omitempty"`
	Detail      string               `json:"detail,omitempty"`
}

// NewPayload builds the webhook body for an outcome. Failure detail is
// redacted because it leaves the system.
func NewPayload(key domain.TaskKey, outcome domain.Outcome) Payload {
	return Payload{
		RequestID:   key.RequestID,
		DocType:     key.DocType,
		Status:      outcome.Status,
		DocumentURL: outcome.DocumentURL,
		Detail:      redact.String(outcome.Detail),
	}
}

// Dispatcher sends outcome notifications to webhooks.
type Dispatcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

var _ events.EventHandler = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. A nil client is replaced with a pooled
// client that does not share global transport state.
func NewDispatcher(cfg config.CallbackConfig, client *http.Client, logger *slog.Logger) *Dispatcher {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "callback_dispatcher"),
	}
}

// Notify delivers payload to url in the background and returns immediately.
// The delivery is detached from ctx cancellation but keeps its values.
func (d *Dispatcher) Notify(ctx context.Context, url string, payload Payload) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("callback delivery panicked",
					"request_id", payload.RequestID,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := d.Deliver(ctx, url, payload); err != nil {
			d.logger.Warn("callback delivery failed",
				"request_id", payload.RequestID,
				"callback_url", url,
				"error", redact.Error(err))
			return
		}
		d.logger.Info("callback delivered",
			"request_id", payload.RequestID,
			"status", payload.Status)
	}()
}

// Deliver makes one delivery attempt and waits for the response.
// Any non-2xx status is an error wrapping domain.ErrCallbackDelivery.
func (d *Dispatcher) Deliver(ctx context.Context, url string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", domain.ErrCallbackDelivery, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrCallbackDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCallbackDelivery, err)
	}
	defer resp.Body.Close()
	// Drain so the connection returns to the pool
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", domain.ErrCallbackDelivery, resp.StatusCode)
	}
	return nil
}

// HandleEvent implements events.EventHandler by scheduling a delivery for
// the outcome. It never blocks on the network.
func (d *Dispatcher) HandleEvent(ctx context.Context, event *events.OutcomeEvent) error {
	if event.CallbackURL == "" {
		d.logger.Debug("outcome has no callback url", "request_id", event.Key.RequestID)
		return nil
	}
	d.Notify(ctx, event.CallbackURL, NewPayload(event.Key, event.Outcome))
	return nil
}

// Wait blocks until every scheduled delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
