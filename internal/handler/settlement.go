package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/middleware"
)

// SettlementNotificationHandler receives status callbacks from the external
// settlement network. The envelope has already been verified by the
// settlement middleware; only verified Arguments reach this handler.
type SettlementNotificationHandler struct{}

func NewSettlementNotificationHandler() *SettlementNotificationHandler {
	return &SettlementNotificationHandler{}
}

type settlementNotification struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type settlementAck struct {
	Success bool `json:"success"`
}

func (h *SettlementNotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	args := middleware.GetSettlementArguments(r.Context())
	if args == nil {
		RespondError(w, http.StatusUnauthorized, "signature_verification_failed", "Envelope verification failed")
		return
	}

	var notification settlementNotification
	if err := json.Unmarshal(args, &notification); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid notification payload")
		return
	}
	if notification.Reference == "" {
		RespondError(w, http.StatusBadRequest, "invalid_request", "reference is required")
		return
	}

	log.Info().
		Str("reference", notification.Reference).
		Str("status", notification.Status).
		Msg("settlement notification received")

	RespondJSON(w, http.StatusOK, settlementAck{Success: true})
}
