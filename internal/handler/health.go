package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/store"
)

type HealthHandler struct {
	store     store.PartnerStore
	startTime time.Time
}

func NewHealthHandler(s store.PartnerStore) *HealthHandler {
	return &HealthHandler{
		store:     s,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	TotalPartners int    `json:"total_partners"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.CountPartners(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count partners")
		total = 0
	}

	RespondJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Version:       "1.0.0",
		TotalPartners: total,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	})
}
