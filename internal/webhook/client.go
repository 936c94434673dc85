package webhook

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewSafeClient builds the outbound HTTP client for callback delivery.
// Partner callback URLs are attacker-influenced input, so the client refuses
// private, loopback, link-local and metadata address ranges, validating the
// resolved IP at dial time.
func NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}
