package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

const EventCheckoutCompleted = "checkout.session.completed"

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Gateway-Signature"

var ErrBadSignature = errors.New("bad event signature")

// Event is a confirmation the gateway delivers at least once. Data.Metadata
// is the metadata from session creation, echoed back verbatim.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	SessionID   string            `json:"sessionId"`
	AmountTotal int64             `json:"amountTotal"`
	Metadata    map[string]string `json:"metadata"`
}

// Sign computes the signature the gateway puts in SignatureHeader.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAndParse checks the signature against the exact raw body bytes and
// only then decodes the event. The body must not have been touched by any
// parsing middleware first, or verification breaks for good reason.
func VerifyAndParse(secret, body []byte, signature string) (*Event, error) {
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrBadSignature
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if ev.Type == "" {
		return nil, errors.New("event missing type")
	}
	return &ev, nil
}
