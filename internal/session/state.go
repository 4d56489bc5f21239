// Package session drives one operator's interactive BLE session: scan, pick
// a device, connect, enumerate its GATT tree, then read or write
// characteristics until the operator disconnects. Everything runs on the
// caller's goroutine, so at most one BLE operation is ever in flight.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// State is a position in the session state machine.
type State int

const (
	Idle State = iota
	Scanning
	DeviceListed
	Connecting
	Enumerating
	Interacting
	Disconnecting
	Exited
)

var stateNames = [...]string{
	Idle:          "idle",
	Scanning:      "scanning",
	DeviceListed:  "device-listed",
	Connecting:    "connecting",
	Enumerating:   "enumerating",
	Interacting:   "interacting",
	Disconnecting: "disconnecting",
	Exited:        "exited",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

var (
	errNotANumber       = errors.New("session: not a number")
	errInvalidSelection = errors.New("session: selection out of range")
	errInvalidHex       = errors.New("session: invalid hex")
)

// selectionMessage is the operator-facing text for a parseIndex failure.
func selectionMessage(err error) string {
	if errors.Is(err, errNotANumber) {
		return "Please enter a valid number."
	}
	return "Invalid selection."
}

// parseIndex converts a 1-based menu answer into a 0-based index below n.
func parseIndex(input string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, errNotANumber
	}
	if i < 1 || i > n {
		return 0, errInvalidSelection
	}
	return i - 1, nil
}

// ParseHex decodes an operator-typed hex payload. Whitespace between bytes
// and a leading 0x are accepted; an empty payload is valid.
func ParseHex(input string) ([]byte, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidHex, err)
	}
	return b, nil
}

// inputError marks a failure to read operator input. It ends the session.
type inputError struct {
	err error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }
