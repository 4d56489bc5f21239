// Package ble defines the BLE central contract used by blenumerator and
// implements it on top of tinygo.org/x/bluetooth. Radio transport, GATT
// parsing, pairing and MTU negotiation all stay inside the host stack; this
// package only scans, connects, enumerates and moves attribute values.
package ble

import (
	"context"
	"strings"
)

// Characteristic property bits, as laid out in the GATT characteristic
// declaration.
const (
	PropBroadcast Property = 1 << iota
	PropRead
	PropWriteWithoutResponse
	PropWrite
	PropNotify
	PropIndicate
	PropAuthenticatedSignedWrites
	PropExtendedProperties
)

// Property is a set of characteristic capability flags.
type Property uint8

var propertyNames = []struct {
	p    Property
	name string
}{
	{PropBroadcast, "broadcast"},
	{PropRead, "read"},
	{PropWriteWithoutResponse, "write-without-response"},
	{PropWrite, "write"},
	{PropNotify, "notify"},
	{PropIndicate, "indicate"},
	{PropAuthenticatedSignedWrites, "authenticated-signed-writes"},
	{PropExtendedProperties, "extended-properties"},
}

// Has reports whether every bit in q is set in p.
func (p Property) Has(q Property) bool {
	return q != 0 && p&q == q
}

// Names returns the flag names in bit order.
func (p Property) Names() []string {
	names := make([]string, 0, len(propertyNames))
	for _, pn := range propertyNames {
		if p&pn.p != 0 {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Property) String() string {
	return strings.Join(p.Names(), ", ")
}

// ParseProperty maps a flag name ("read", "write-without-response", ...) to
// its bit. Unknown names return 0.
func ParseProperty(name string) Property {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, pn := range propertyNames {
		if pn.name == name {
			return pn.p
		}
	}
	return 0
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Address string // MAC on Linux/Windows, CoreBluetooth UUID on macOS
	Name    string
	RSSI    int
}

// DisplayName returns the advertised name, or "Unnamed Device".
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "Unnamed Device"
	}
	return d.Name
}

// Characteristic is a snapshot of a GATT characteristic taken at
// enumeration time.
type Characteristic struct {
	UUID        string
	Properties  Property
	ServiceUUID string // owning service, not ownership
}

// Readable reports whether the characteristic supports reads.
func (c Characteristic) Readable() bool {
	return c.Properties.Has(PropRead)
}

// Writable reports whether the characteristic accepts writes with or
// without response.
func (c Characteristic) Writable() bool {
	return c.Properties.Has(PropWrite) || c.Properties.Has(PropWriteWithoutResponse)
}

// Service is a GATT primary service and its characteristics in discovery
// order.
type Service struct {
	UUID            string
	Characteristics []Characteristic
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// IsConnected reports whether the link is still up.
	IsConnected() bool
	// Services enumerates every service and characteristic on the peripheral.
	Services(ctx context.Context) ([]Service, error)
	// Read returns the current value of the characteristic.
	Read(ctx context.Context, c Characteristic) ([]byte, error)
	// Write sends data to the characteristic. Characteristics that only
	// support write-without-response are written without response.
	Write(ctx context.Context, c Characteristic, data []byte) error
	// Disconnect terminates the connection.
	Disconnect() error
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals until ctx is done. Devices are returned
	// once each, in discovery order.
	Scan(ctx context.Context) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
}
