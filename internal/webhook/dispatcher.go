// Package webhook delivers asynchronous event notifications to
// partner-registered callback URLs with signing, per-attempt timeouts and
// bounded retry.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/metrics"
	"github.com/partner-gateway-service/internal/model"
)

// ErrDeliveryExhausted reports that every attempt in the retry budget
// failed. It wraps the last attempt's error.
var ErrDeliveryExhausted = errors.New("webhook: delivery retry budget exhausted")

// Retry delays grow by this factor per attempt: base, base*3, base*9.
const backoffFactor = 3

// Result is the terminal outcome of one delivery sequence.
type Result struct {
	Delivered  bool
	Attempts   int
	StatusCode int
	Err        error
}

// Dispatcher posts signed event envelopes to callback URLs. Retries within
// one delivery are sequential; independent deliveries run concurrently
// through a bounded worker pool.
type Dispatcher struct {
	client      *http.Client
	maxRetries  int
	backoffBase time.Duration
	collector   *metrics.Collector

	// sleep is replaced in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error

	jobs chan Job
	wg   sync.WaitGroup
}

// Job is one queued delivery. Done, when set, receives the terminal result.
type Job struct {
	Delivery *model.WebhookDelivery
	Secret   string
	Done     func(Result)
}

// NewDispatcher creates a dispatcher with the given retry budget and initial
// backoff delay. The HTTP client is injected so callers control timeout and
// transport policy (see NewSafeClient).
func NewDispatcher(client *http.Client, maxRetries int, backoffBase time.Duration, collector *metrics.Collector) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Dispatcher{
		client:      client,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		collector:   collector,
		sleep:       sleepContext,
		jobs:        make(chan Job),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled and the
// queue drains; Wait blocks until then.
func (d *Dispatcher) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					d.run(ctx, job)
				}
			}
		}()
	}
}

// Enqueue hands a delivery to the worker pool. It blocks if every worker is
// busy, bounding outbound concurrency.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.jobs <- job:
		return nil
	}
}

// Wait blocks until all workers have exited.
func (d *Dispatcher) Wait() {
	close(d.jobs)
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	result := d.deliver(ctx, job.Delivery.TargetURL, job.Delivery.Payload, job.Secret)

	job.Delivery.Attempts = result.Attempts
	if result.Delivered {
		job.Delivery.Status = model.DeliveryDelivered
	} else {
		job.Delivery.Status = model.DeliveryExhausted
		if result.Err != nil {
			job.Delivery.LastError = result.Err.Error()
		}
	}
	if result.StatusCode != 0 {
		code := result.StatusCode
		job.Delivery.StatusCode = &code
	}

	if job.Done != nil {
		job.Done(result)
	}
}

// Deliver serializes env, signs it when secret is set, and runs the full
// attempt sequence synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, url string, env *model.Envelope, secret string) Result {
	body, err := json.Marshal(env)
	if err != nil {
		return Result{Err: fmt.Errorf("marshal event envelope: %w", err)}
	}
	return d.deliver(ctx, url, body, secret)
}

func (d *Dispatcher) deliver(ctx context.Context, url string, body []byte, secret string) Result {
	maxAttempts := d.maxRetries + 1
	delay := d.backoffBase
	started := time.Now()

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, delay); err != nil {
				return Result{Attempts: attempt - 1, StatusCode: lastStatus, Err: err}
			}
			delay *= backoffFactor
		}

		if d.collector != nil {
			d.collector.RecordWebhookAttempt()
		}
		status, err := d.post(ctx, url, body, secret)
		if err == nil && status >= 200 && status < 300 {
			if d.collector != nil {
				d.collector.RecordWebhookOutcome(true, time.Since(started).Seconds())
			}
			return Result{Delivered: true, Attempts: attempt, StatusCode: status}
		}

		lastStatus = status
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("callback returned status %d", status)
		}

		log.Warn().
			Str("url", url).
			Int("attempt", attempt).
			Int("status", status).
			Err(err).
			Msg("webhook delivery attempt failed")
	}

	if d.collector != nil {
		d.collector.RecordWebhookOutcome(false, time.Since(started).Seconds())
	}
	return Result{
		Attempts:   maxAttempts,
		StatusCode: lastStatus,
		Err:        fmt.Errorf("%w: %w", ErrDeliveryExhausted, lastErr),
	}
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte, secret string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SignatureHeader, Signature(body, secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	return resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
