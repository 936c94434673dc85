package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/partner-gateway-service/internal/settlement"
)

const settlementArgsContextKey contextKey = "settlement_arguments"

// GetSettlementArguments extracts the verified settlement payload from the
// request context.
func GetSettlementArguments(ctx context.Context) json.RawMessage {
	args, _ := ctx.Value(settlementArgsContextKey).(json.RawMessage)
	return args
}

// VerifySettlement returns middleware that validates inbound settlement
// network envelopes: the MAC is recomputed over the Arguments field and the
// request is rejected on mismatch or on a mode other than "SH", before the
// payload reaches any handler.
func VerifySettlement(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var env settlement.Envelope
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&env); err != nil {
				respondError(w, http.StatusBadRequest, "invalid_request", "Invalid settlement envelope")
				return
			}

			args, err := settlement.Open(&env, secret)
			if err != nil {
				log.Warn().Err(err).Str("mode", env.Mode).Msg("inbound settlement envelope rejected")
				respondError(w, http.StatusUnauthorized, "signature_verification_failed", "Envelope verification failed")
				return
			}

			ctx := context.WithValue(r.Context(), settlementArgsContextKey, args)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
