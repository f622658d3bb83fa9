package addresswatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// frameTypeAddress is the frame type carrying activity for the subscribed address.
const frameTypeAddress = "address"

var (
	// ErrMalformedFrame is returned when an inbound frame is not a JSON object.
	ErrMalformedFrame = errors.New("malformed feed frame")

	// ErrMissingTxID is returned when an address frame carries no transaction id.
	ErrMissingTxID = errors.New("address frame without txid")
)

// frame is the envelope of every inbound feed message. Only the fields the
// router needs are decoded; the rest of the message is ignored.
type frame struct {
	Type   string          `json:"type"`
	Status any             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// AddressActivity is the payload of an "address" frame: one sighting of a
// transaction touching the watched address.
type AddressActivity struct {
	TxID string `json:"txid"`

	// BalanceChange is the raw JSON value of the field. It is usually a number
	// but any value is accepted; see BalanceChangeText.
	BalanceChange json.RawMessage `json:"balance_change"`
}

// BalanceChangeText renders the balance change as the feed wrote it. Numbers
// keep their literal (e.g. "5.0"), strings are unquoted, and an absent or null
// value is empty.
func (a AddressActivity) BalanceChangeText() string {
	raw := bytes.TrimSpace(a.BalanceChange)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// decodeFrame parses a raw feed message.
func decodeFrame(raw []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return frame{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return f, nil
}

// addressActivity decodes the data object of an address frame.
func (f frame) addressActivity() (AddressActivity, error) {
	var activity AddressActivity
	if len(f.Data) == 0 {
		return activity, ErrMissingTxID
	}

	if err := json.Unmarshal(f.Data, &activity); err != nil {
		return activity, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	if activity.TxID == "" {
		return activity, ErrMissingTxID
	}

	return activity, nil
}

// statusReport returns the frame's status as text, and false when the frame
// carries no meaningful status (absent, null, empty, false or zero).
func (f frame) statusReport() (string, bool) {
	switch status := f.Status.(type) {
	case nil:
		return "", false
	case string:
		return status, status != ""
	case bool:
		return "true", status
	case float64:
		return fmt.Sprint(status), status != 0
	default:
		b, err := json.Marshal(status)
		if err != nil {
			return fmt.Sprint(status), true
		}
		return string(b), true
	}
}
