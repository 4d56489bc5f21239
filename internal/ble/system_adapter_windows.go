//go:build windows

package ble

import (
	"context"

	"tinygo.org/x/bluetooth"
)

// WinRT reports the characteristic declaration properties directly.
type platformGATT struct{}

func (c *systemConnection) loadPlatform(context.Context) error { return nil }

func (c *systemConnection) properties(_ charKey, dc *bluetooth.DeviceCharacteristic) Property {
	return Property(dc.Properties())
}

func (c *systemConnection) write(ctx context.Context, ch Characteristic, dc *bluetooth.DeviceCharacteristic, data []byte) error {
	write := dc.Write
	if !ch.Properties.Has(PropWrite) {
		write = dc.WriteWithoutResponse
	}
	_, err := await(ctx, func() (int, error) {
		return write(data)
	})
	return err
}
