package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/httputil"
	"github.com/partner-gateway-service/internal/middleware"
	"github.com/partner-gateway-service/internal/model"
	"github.com/partner-gateway-service/internal/service"
	"github.com/partner-gateway-service/internal/store"
)

// ListDeliveriesHandler lets a partner inspect its own webhook delivery log,
// including exhausted deliveries awaiting manual replay.
type ListDeliveriesHandler struct {
	store store.DeliveryLogStore
}

func NewListDeliveriesHandler(s store.DeliveryLogStore) *ListDeliveriesHandler {
	return &ListDeliveriesHandler{store: s}
}

type listDeliveriesResponse struct {
	Success    bool                     `json:"success"`
	Deliveries []*model.WebhookDelivery `json:"deliveries"`
	Total      int                      `json:"total"`
	Page       int                      `json:"page"`
	PerPage    int                      `json:"per_page"`
}

func (h *ListDeliveriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing credentials")
		return
	}

	partnerID, err := uuid.Parse(principal.PartnerID)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid partner identifier")
		return
	}

	page, perPage, err := httputil.ParsePagination(r.URL.Query())
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	deliveries, total, err := h.store.ListDeliveriesByPartner(r.Context(), partnerID, page, perPage)
	if err != nil {
		log.Error().Err(err).Str("partner_id", partnerID.String()).Msg("failed to list webhook deliveries")
		RespondError(w, http.StatusInternalServerError, "internal_error", "Failed to list deliveries")
		return
	}
	if deliveries == nil {
		deliveries = []*model.WebhookDelivery{}
	}

	RespondJSON(w, http.StatusOK, listDeliveriesResponse{
		Success:    true,
		Deliveries: deliveries,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
	})
}

// TestWebhookHandler fires a synthetic payment event at the partner's
// registered callback URL so integrations can be verified end to end.
type TestWebhookHandler struct {
	notify *service.NotifyService
}

func NewTestWebhookHandler(svc *service.NotifyService) *TestWebhookHandler {
	return &TestWebhookHandler{notify: svc}
}

type testWebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *TestWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing credentials")
		return
	}

	partnerID, err := uuid.Parse(principal.PartnerID)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid partner identifier")
		return
	}

	event := model.PaymentEvent{
		PolicyRef:  "TEST-POLICY",
		PaymentRef: "TEST-" + uuid.NewString(),
		Amount:     "0.00",
		Currency:   "USD",
		Status:     "test",
	}
	if err := h.notify.Notify(r.Context(), partnerID, event); err != nil {
		service.RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusAccepted, testWebhookResponse{
		Success: true,
		Message: "Test notification queued",
	})
}
