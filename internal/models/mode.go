package models

import "time"

// Mode selects how the local agent answers incoming messages.
type Mode string

const (
	// ModeManual means the operator answers by hand.
	ModeManual Mode = "manual"
	// ModeAuto means the auto-responder picks a pooled reply.
	ModeAuto Mode = "auto"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeManual || m == ModeAuto
}

// ModeState is the store-wide mode flag, last write wins.
type ModeState struct {
	Mode      Mode      `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}
