package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/partner-gateway-service/internal/model"
)

func testDelivery(url string) *model.WebhookDelivery {
	return &model.WebhookDelivery{
		ID:        uuid.New(),
		PartnerID: uuid.New(),
		EventID:   uuid.NewString(),
		EventType: model.EventPaymentStatus,
		TargetURL: url,
		Payload:   []byte(`{"eventType":"payment.settled"}`),
		Status:    model.DeliveryPending,
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *[]time.Duration) {
	t.Helper()
	d := NewDispatcher(&http.Client{Timeout: 2 * time.Second}, 3, time.Second, nil)
	delays := &[]time.Duration{}
	d.sleep = func(_ context.Context, delay time.Duration) error {
		*delays = append(*delays, delay)
		return nil
	}
	return d, delays
}

func TestDeliverSucceedsAfterRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, delays := newTestDispatcher(t)
	res := d.deliver(context.Background(), srv.URL, []byte(`{"ping":true}`), "")

	if !res.Delivered {
		t.Fatalf("expected delivery to succeed, got %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", res.Attempts)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	want := []time.Duration{time.Second, 3 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("backoff delays = %v, want %v", *delays, want)
	}
	for i, delay := range want {
		if (*delays)[i] != delay {
			t.Fatalf("backoff delays = %v, want %v", *delays, want)
		}
	}
}

func TestDeliverExhaustsRetryBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, delays := newTestDispatcher(t)
	res := d.deliver(context.Background(), srv.URL, []byte(`{}`), "")

	if res.Delivered {
		t.Fatal("expected delivery to fail")
	}
	if res.Attempts != 4 {
		t.Fatalf("attempts = %d, want 4 (initial + 3 retries)", res.Attempts)
	}
	if got := hits.Load(); got != 4 {
		t.Fatalf("server saw %d requests, want 4", got)
	}
	if !errors.Is(res.Err, ErrDeliveryExhausted) {
		t.Fatalf("err = %v, want ErrDeliveryExhausted", res.Err)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", res.StatusCode)
	}

	want := []time.Duration{time.Second, 3 * time.Second, 9 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("backoff delays = %v, want %v", *delays, want)
	}
	for i, delay := range want {
		if (*delays)[i] != delay {
			t.Fatalf("backoff delays = %v, want %v", *delays, want)
		}
	}
}

func TestDeliverSignsPayload(t *testing.T) {
	body := []byte(`{"eventType":"payment.settled"}`)
	secret := "cb-secret"

	var gotSig, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(t)
	res := d.deliver(context.Background(), srv.URL, body, secret)
	if !res.Delivered {
		t.Fatalf("delivery failed: %+v", res)
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q", gotType)
	}
	if gotSig == "" {
		t.Fatal("expected signature header to be set")
	}
	if !VerifySignature(body, gotSig, secret) {
		t.Fatalf("signature %q does not verify against payload", gotSig)
	}
}

func TestDeliverOmitsSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(t)
	if res := d.deliver(context.Background(), srv.URL, []byte(`{}`), ""); !res.Delivered {
		t.Fatalf("delivery failed: %+v", res)
	}
	if gotSig != "" {
		t.Fatalf("expected no signature header, got %q", gotSig)
	}
}

func TestDeliverStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDispatcher(&http.Client{Timeout: 2 * time.Second}, 3, time.Second, nil)
	d.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	res := d.deliver(context.Background(), srv.URL, []byte(`{}`), "")
	if res.Delivered {
		t.Fatal("expected delivery to fail")
	}
	if res.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (cancelled before retry)", res.Attempts)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", res.Err)
	}
}

func TestWorkerPoolRunsJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := newTestDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx, 2)

	done := make(chan Result, 1)
	job := Job{
		Delivery: testDelivery(srv.URL),
		Done:     func(r Result) { done <- r },
	}
	if err := d.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case res := <-done:
		if !res.Delivered || res.Attempts != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery result")
	}
	if job.Delivery.Status != model.DeliveryDelivered {
		t.Fatalf("delivery status = %q, want delivered", job.Delivery.Status)
	}
}
