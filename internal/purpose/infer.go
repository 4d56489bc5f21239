package purpose

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/chaz8081/blenumerator/internal/ble"
)

const vendorPrefix = "Vendor-specific: "

// Engine infers characteristic purposes against an immutable registry.
// Inference has no side effects and is never cached.
type Engine struct {
	reg *Registry
}

// NewEngine creates an Engine backed by reg.
func NewEngine(reg *Registry) *Engine {
	return &Engine{reg: reg}
}

// Infer returns a best-guess description of a characteristic. A nil value
// means nothing was sampled; a non-nil empty value is a sampled empty read.
// Registered UUIDs return their meaning verbatim and ignore the value.
func (e *Engine) Infer(id string, props ble.Property, value []byte) string {
	if name, ok := e.reg.Lookup(id); ok {
		return name
	}

	guess := vendorPrefix + classify(props)
	if value != nil {
		guess += valueHint(value)
	}
	return guess
}

// DescribeService returns the human-readable description of a service.
func (e *Engine) DescribeService(id string) string {
	return e.reg.ServiceName(id)
}

// classify picks the first property rule that matches.
func classify(props ble.Property) string {
	read := props.Has(ble.PropRead)
	notify := props.Has(ble.PropNotify)
	switch {
	case read && notify:
		return "Possibly a sensor value or status (real-time updates)"
	case read:
		return "Possibly a status, configuration, or static data"
	case props.Has(ble.PropWrite) || props.Has(ble.PropWriteWithoutResponse):
		return "Likely a command or control input"
	case notify:
		return "Possibly a notification-only status or event"
	default:
		return "Unknown purpose"
	}
}

var hundred = big.NewInt(100)

// valueHint annotates the shape of a sampled value read as an unsigned
// little-endian integer. 0 and 1 count as boolean before the 0-100 band.
func valueHint(value []byte) string {
	h := hex.EncodeToString(value)
	v, ok := littleEndian(value)
	if !ok {
		return fmt.Sprintf(" (Value: %s - format unknown)", h)
	}

	var note string
	switch {
	case v.Cmp(big.NewInt(1)) <= 0:
		note = "possibly on/off or boolean"
	case v.Cmp(hundred) <= 0:
		note = "could be percentage, temp, etc."
	default:
		note = "possibly a counter or raw data"
	}
	return fmt.Sprintf(" (Value: %s/%s - %s)", h, v.String(), note)
}

// Decimal renders value as an unsigned little-endian integer. Empty values
// render as "0".
func Decimal(value []byte) string {
	v, ok := littleEndian(value)
	if !ok {
		return "0"
	}
	return v.String()
}

func littleEndian(value []byte) (*big.Int, bool) {
	if len(value) == 0 {
		return nil, false
	}
	be := make([]byte, len(value))
	for i, b := range value {
		be[len(value)-1-i] = b
	}
	return new(big.Int).SetBytes(be), true
}
