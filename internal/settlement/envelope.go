package settlement

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ModeSH is the only exchange mode the network defines.
const ModeSH = "SH"

var (
	// ErrModeMismatch rejects envelopes whose Mode is not "SH".
	ErrModeMismatch = errors.New("settlement: unsupported envelope mode")
	// ErrSignatureMismatch rejects envelopes whose MAC does not verify over
	// the Arguments field. The payload must not be processed.
	ErrSignatureMismatch = errors.New("settlement: envelope signature mismatch")
)

// Envelope is the wire unit exchanged with the settlement network.
type Envelope struct {
	MAC       string          `json:"MAC"`
	Arguments json.RawMessage `json:"Arguments"`
	Mode      string          `json:"Mode"`
}

// Seal signs the canonical JSON form of arguments and wraps it in an
// envelope ready for transmission.
func Seal(arguments any, secret string) (*Envelope, error) {
	raw, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal settlement arguments: %w", err)
	}
	return &Envelope{
		MAC:       Sign(raw, secret),
		Arguments: raw,
		Mode:      ModeSH,
	}, nil
}

// Open validates an inbound envelope and returns its arguments. The MAC is
// recomputed over the Arguments bytes exactly as received.
func Open(env *Envelope, secret string) (json.RawMessage, error) {
	if env.Mode != ModeSH {
		return nil, ErrModeMismatch
	}
	if !Verify(env.Arguments, env.MAC, secret) {
		return nil, ErrSignatureMismatch
	}
	return env.Arguments, nil
}
