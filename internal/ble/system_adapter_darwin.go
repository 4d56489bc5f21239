//go:build darwin

package ble

import (
	"context"

	"tinygo.org/x/bluetooth"
)

// darwinProperties is reported for every characteristic on macOS. tinygo
// keeps the CoreBluetooth properties private, so every characteristic is
// offered for read and write and CoreBluetooth rejects what it does not
// support; the rejection surfaces as an ordinary read or write failure.
const darwinProperties = PropRead | PropWrite

type platformGATT struct{}

func (c *systemConnection) loadPlatform(context.Context) error { return nil }

func (c *systemConnection) properties(charKey, *bluetooth.DeviceCharacteristic) Property {
	return darwinProperties
}

func (c *systemConnection) write(ctx context.Context, _ Characteristic, dc *bluetooth.DeviceCharacteristic, data []byte) error {
	_, err := await(ctx, func() (int, error) {
		return dc.Write(data)
	})
	return err
}
