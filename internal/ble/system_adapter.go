//go:build linux || darwin || windows

package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"tinygo.org/x/bluetooth"
)

// maxAttributeLen is the largest value an ATT attribute can hold.
const maxAttributeLen = 512

// SystemAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth on
// macOS, WinRT on Windows). On macOS device addresses are CoreBluetooth UUIDs,
// not MAC addresses; the Address field of Device carries whichever the
// platform reports.
type SystemAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*systemConnection // keyed by device address
}

// NewSystemAdapter creates a BLE adapter backed by the default host adapter.
func NewSystemAdapter() *SystemAdapter {
	return &SystemAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*systemConnection),
	}
}

func (a *SystemAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	// The host stack reports link loss through the adapter-level handler.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		addr := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[addr]
		delete(a.connections, addr)
		a.mu.Unlock()
		if ok {
			conn.connected.Store(false)
		}
	})

	return nil
}

func (a *SystemAdapter) Scan(ctx context.Context) ([]Device, error) {
	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = a.adapter.StopScan()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[addr] {
			return
		}
		seen[addr] = true
		devices = append(devices, Device{
			Address: addr,
			Name:    result.LocalName(),
			RSSI:    int(result.RSSI),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

func (a *SystemAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	// Connect blocks inside the host stack with its own timeout; racing it
	// against ctx keeps cancellation responsive.
	device, err := await(ctx, func() (bluetooth.Device, error) {
		return a.adapter.Connect(addr, bluetooth.ConnectionParams{})
	})
	if err != nil {
		return nil, fmt.Errorf("ble: connect to %s: %w", address, err)
	}

	conn := &systemConnection{
		address: address,
		device:  &device,
		chars:   make(map[charKey]*bluetooth.DeviceCharacteristic),
	}
	conn.connected.Store(true)

	a.mu.Lock()
	a.connections[device.Address.String()] = conn
	a.mu.Unlock()

	return conn, nil
}

// Compile-time check that SystemAdapter implements Adapter.
var _ Adapter = (*SystemAdapter)(nil)

type charKey struct {
	service string
	uuid    string
}

type systemConnection struct {
	address   string
	device    *bluetooth.Device
	connected atomic.Bool

	// platform holds per-OS attribute metadata for the latest enumeration.
	platform platformGATT

	// chars maps the latest enumeration snapshot back to host-stack handles.
	chars map[charKey]*bluetooth.DeviceCharacteristic
}

func (c *systemConnection) IsConnected() bool {
	return c.connected.Load()
}

func (c *systemConnection) Services(ctx context.Context) ([]Service, error) {
	svcs, err := await(ctx, func() ([]bluetooth.DeviceService, error) {
		return c.device.DiscoverServices(nil)
	})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}

	if err := c.loadPlatform(ctx); err != nil {
		return nil, err
	}

	chars := make(map[charKey]*bluetooth.DeviceCharacteristic)
	services := make([]Service, 0, len(svcs))
	for i := range svcs {
		svc := &svcs[i]
		svcUUID := strings.ToLower(svc.UUID().String())

		found, err := await(ctx, func() ([]bluetooth.DeviceCharacteristic, error) {
			return svc.DiscoverCharacteristics(nil)
		})
		if err != nil {
			return nil, fmt.Errorf("ble: discover characteristics of %s: %w", svcUUID, err)
		}

		s := Service{UUID: svcUUID, Characteristics: make([]Characteristic, 0, len(found))}
		for j := range found {
			ch := &found[j]
			key := charKey{svcUUID, strings.ToLower(ch.UUID().String())}
			s.Characteristics = append(s.Characteristics, Characteristic{
				UUID:        key.uuid,
				Properties:  c.properties(key, ch),
				ServiceUUID: svcUUID,
			})
			chars[key] = ch
		}
		services = append(services, s)
	}

	c.chars = chars
	return services, nil
}

func (c *systemConnection) lookup(ch Characteristic) (*bluetooth.DeviceCharacteristic, error) {
	if !c.IsConnected() {
		return nil, fmt.Errorf("ble: not connected")
	}
	dc, ok := c.chars[charKey{ch.ServiceUUID, ch.UUID}]
	if !ok {
		return nil, fmt.Errorf("ble: characteristic %s not found", ch.UUID)
	}
	return dc, nil
}

func (c *systemConnection) Read(ctx context.Context, ch Characteristic) ([]byte, error) {
	dc, err := c.lookup(ch)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, maxAttributeLen)
	n, err := await(ctx, func() (int, error) {
		return dc.Read(buf)
	})
	if err != nil {
		return nil, fmt.Errorf("ble: read %s: %w", ch.UUID, err)
	}
	return buf[:n], nil
}

func (c *systemConnection) Write(ctx context.Context, ch Characteristic, data []byte) error {
	dc, err := c.lookup(ch)
	if err != nil {
		return err
	}
	if err := c.write(ctx, ch, dc, data); err != nil {
		return fmt.Errorf("ble: write %s: %w", ch.UUID, err)
	}
	return nil
}

func (c *systemConnection) Disconnect() error {
	c.connected.Store(false)
	c.chars = nil
	c.platform = platformGATT{}
	return c.device.Disconnect()
}
