package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/partner-gateway-service/internal/model"
	"github.com/partner-gateway-service/internal/store"
	"github.com/partner-gateway-service/internal/webhook"
)

type fakeDeliveryStore struct {
	mu         sync.Mutex
	created    []*model.WebhookDelivery
	updated    []*model.WebhookDelivery
	updateDone chan struct{}
}

func (f *fakeDeliveryStore) CreateDelivery(_ context.Context, d *model.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = uuid.New()
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDeliveryStore) UpdateDeliveryOutcome(_ context.Context, d *model.WebhookDelivery) error {
	f.mu.Lock()
	f.updated = append(f.updated, d)
	f.mu.Unlock()
	if f.updateDone != nil {
		f.updateDone <- struct{}{}
	}
	return nil
}

func (f *fakeDeliveryStore) ListDeliveriesByPartner(_ context.Context, _ uuid.UUID, _, _ int) ([]*model.WebhookDelivery, int, error) {
	return nil, 0, nil
}

type fakePartnerByID struct {
	store.PartnerStore
	partner *model.Partner
}

func (f *fakePartnerByID) GetPartnerByID(_ context.Context, id uuid.UUID) (*model.Partner, error) {
	if f.partner == nil || f.partner.ID != id {
		return nil, store.ErrNotFound
	}
	return f.partner, nil
}

func TestNotifyDeliversAndRecordsOutcome(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(webhook.SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	partner := &model.Partner{
		ID:             uuid.New(),
		Code:           "ACME01",
		Status:         model.PartnerActive,
		CallbackURL:    srv.URL,
		CallbackSecret: "cb-secret",
	}
	deliveries := &fakeDeliveryStore{updateDone: make(chan struct{}, 1)}

	dispatcher := webhook.NewDispatcher(&http.Client{Timeout: 2 * time.Second}, 0, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx, 1)

	svc := NewNotifyService(&fakePartnerByID{partner: partner}, deliveries, dispatcher)

	event := &model.PaymentEvent{PaymentRef: "PAY-1001", Amount: "150.00", Currency: "KES", Status: "settled"}
	if err := svc.Notify(ctx, partner.ID, event); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case <-deliveries.updateDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery outcome")
	}

	deliveries.mu.Lock()
	defer deliveries.mu.Unlock()
	if len(deliveries.created) != 1 {
		t.Fatalf("created %d deliveries, want 1", len(deliveries.created))
	}
	recorded := deliveries.updated[0]
	if recorded.Status != model.DeliveryDelivered {
		t.Fatalf("status = %q, want delivered", recorded.Status)
	}
	if recorded.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", recorded.Attempts)
	}
	if gotSig == "" {
		t.Fatal("expected signed callback")
	}
	if !webhook.VerifySignature(recorded.Payload, gotSig, "cb-secret") {
		t.Fatal("callback signature does not verify over the recorded payload")
	}
}

func TestNotifyRecordsExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	partner := &model.Partner{
		ID:          uuid.New(),
		Code:        "ACME01",
		Status:      model.PartnerActive,
		CallbackURL: srv.URL,
	}
	deliveries := &fakeDeliveryStore{updateDone: make(chan struct{}, 1)}

	dispatcher := webhook.NewDispatcher(&http.Client{Timeout: 2 * time.Second}, 1, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx, 1)

	svc := NewNotifyService(&fakePartnerByID{partner: partner}, deliveries, dispatcher)

	event := &model.PaymentEvent{PaymentRef: "PAY-1002", Amount: "10.00", Currency: "KES", Status: "settled"}
	if err := svc.Notify(ctx, partner.ID, event); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case <-deliveries.updateDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery outcome")
	}

	deliveries.mu.Lock()
	defer deliveries.mu.Unlock()
	recorded := deliveries.updated[0]
	if recorded.Status != model.DeliveryExhausted {
		t.Fatalf("status = %q, want exhausted", recorded.Status)
	}
	if recorded.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", recorded.Attempts)
	}
	if recorded.LastError == "" {
		t.Fatal("exhausted delivery must record the last error")
	}
}

func TestNotifySkipsPartnerWithoutCallback(t *testing.T) {
	partner := &model.Partner{ID: uuid.New(), Code: "ACME01", Status: model.PartnerActive}
	deliveries := &fakeDeliveryStore{}
	dispatcher := webhook.NewDispatcher(nil, 0, time.Millisecond, nil)

	svc := NewNotifyService(&fakePartnerByID{partner: partner}, deliveries, dispatcher)

	event := &model.PaymentEvent{PaymentRef: "PAY-1003"}
	if err := svc.Notify(context.Background(), partner.ID, event); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(deliveries.created) != 0 {
		t.Fatal("no delivery should be recorded without a callback URL")
	}
}

func TestNotifyUnknownPartner(t *testing.T) {
	svc := NewNotifyService(&fakePartnerByID{}, &fakeDeliveryStore{}, webhook.NewDispatcher(nil, 0, time.Millisecond, nil))

	err := svc.Notify(context.Background(), uuid.New(), &model.PaymentEvent{PaymentRef: "PAY-1004"})
	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != ErrNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
