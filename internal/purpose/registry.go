// Package purpose guesses what a GATT characteristic is for. Well-known
// Bluetooth SIG UUIDs resolve through a static registry; everything else is
// classified from its declared properties and, when available, the shape of
// a sampled value.
package purpose

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// sigBaseSuffix completes 16- and 32-bit SIG short forms into full UUIDs.
const sigBaseSuffix = "-0000-1000-8000-00805f9b34fb"

// characteristicNames holds the built-in well-known characteristics, keyed by
// 16-bit short form.
var characteristicNames = map[string]string{
	"2a00": "Device Name (readable string)",
	"2a01": "Appearance (device category)",
	"2a04": "Peripheral Preferred Connection Parameters",
	"2a05": "Service Changed (indicates service updates)",
	"2a19": "Battery Level (percentage)",
	"2a23": "System ID",
	"2a24": "Model Number String",
	"2a25": "Serial Number String",
	"2a26": "Firmware Revision String",
	"2a27": "Hardware Revision String",
	"2a28": "Software Revision String",
	"2a29": "Manufacturer Name String",
	"2a37": "Heart Rate Measurement",
	"2a38": "Body Sensor Location",
	"2a50": "PnP ID (vendor and product identifiers)",
	"2a6e": "Temperature",
	"2a6f": "Humidity",
	"2aa6": "Central Address Resolution",
}

var serviceNames = map[string]string{
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"1809": "Health Thermometer",
	"180a": "Device Information",
	"180d": "Heart Rate",
	"180f": "Battery Service",
	"1812": "Human Interface Device",
	"181a": "Environmental Sensing",
}

// vendorService describes services the registry does not know.
const vendorService = "Vendor specific"

// Registry maps well-known UUIDs to human-readable meanings. It is built
// once at startup and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	characteristics map[string]string
	services        map[string]string
	extra           map[string]string // operator supplied, any attribute kind
}

// NewRegistry builds the registry from the built-in tables plus operator
// supplied names. Extra entries override built-ins with the same UUID.
func NewRegistry(extra map[string]string) (*Registry, error) {
	r := &Registry{
		characteristics: make(map[string]string, len(characteristicNames)+len(extra)),
		services:        make(map[string]string, len(serviceNames)),
		extra:           make(map[string]string, len(extra)),
	}
	for short, name := range characteristicNames {
		r.characteristics[Canonical(short)] = name
	}
	for short, name := range serviceNames {
		r.services[Canonical(short)] = name
	}
	for raw, name := range extra {
		key, err := parseCanonical(raw)
		if err != nil {
			return nil, fmt.Errorf("purpose: registry entry %q: %w", raw, err)
		}
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("purpose: registry entry %q: empty name", raw)
		}
		r.characteristics[key] = name
		r.extra[key] = name
	}
	return r, nil
}

// Lookup returns the registered meaning of a characteristic UUID.
func (r *Registry) Lookup(id string) (string, bool) {
	name, ok := r.characteristics[Canonical(id)]
	return name, ok
}

// ServiceName describes a service UUID, falling back to operator supplied
// names and then to "Vendor specific".
func (r *Registry) ServiceName(id string) string {
	key := Canonical(id)
	if name, ok := r.services[key]; ok {
		return name
	}
	if name, ok := r.extra[key]; ok {
		return name
	}
	return vendorService
}

// Canonical returns the lowercase 128-bit string form of id. 16- and 32-bit
// SIG short forms are expanded onto the Bluetooth base UUID. Strings that are
// not UUIDs come back trimmed and lowercased.
func Canonical(id string) string {
	key, err := parseCanonical(id)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(id))
	}
	return key
}

func parseCanonical(id string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(id))
	s = strings.TrimPrefix(s, "0x")
	if (len(s) == 4 || len(s) == 8) && isHex(s) {
		s = strings.Repeat("0", 8-len(s)) + s + sigBaseSuffix
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}
