//go:build linux

package ble

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"tinygo.org/x/bluetooth"
)

// BlueZ D-Bus names. tinygo does not expose characteristic flags on Linux,
// so they are read from the BlueZ object tree directly.
const (
	bluezBusName         = "org.bluez"
	bluezDevice          = "org.bluez.Device1"
	bluezGattService     = "org.bluez.GattService1"
	bluezGattChar        = "org.bluez.GattCharacteristic1"
	objectManagerObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

type bluezChar struct {
	path  dbus.ObjectPath
	props Property
}

type platformGATT struct {
	bus   *dbus.Conn
	chars map[charKey]bluezChar
}

func (c *systemConnection) loadPlatform(ctx context.Context) error {
	bus, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("ble: system bus: %w", err)
	}
	objects := make(managedObjects)
	if err := bus.Object(bluezBusName, "/").CallWithContext(ctx, objectManagerObjects, 0).Store(&objects); err != nil {
		return fmt.Errorf("ble: read BlueZ objects: %w", err)
	}
	c.platform = platformGATT{bus: bus, chars: bluezCharacteristics(objects, c.address)}
	return nil
}

func (c *systemConnection) properties(key charKey, _ *bluetooth.DeviceCharacteristic) Property {
	return c.platform.chars[key].props
}

// write uses a BlueZ write request when the characteristic accepts one, and
// tinygo's write command otherwise.
func (c *systemConnection) write(ctx context.Context, ch Characteristic, dc *bluetooth.DeviceCharacteristic, data []byte) error {
	bc, ok := c.platform.chars[charKey{ch.ServiceUUID, ch.UUID}]
	if ok && ch.Properties.Has(PropWrite) && c.platform.bus != nil {
		options := map[string]dbus.Variant{"type": dbus.MakeVariant("request")}
		return c.platform.bus.Object(bluezBusName, bc.path).
			CallWithContext(ctx, bluezGattChar+".WriteValue", 0, data, options).Err
	}
	_, err := await(ctx, func() (int, error) {
		return dc.WriteWithoutResponse(data)
	})
	return err
}

// bluezCharacteristics collects the characteristics of the device with the
// given address, keyed like the enumeration snapshot. Flags map through
// ParseProperty; flags with no GATT property bit are ignored.
func bluezCharacteristics(objects managedObjects, address string) map[charKey]bluezChar {
	var device dbus.ObjectPath
	for path, ifaces := range objects {
		if dev, ok := ifaces[bluezDevice]; ok && strings.EqualFold(variantString(dev["Address"]), address) {
			device = path
			break
		}
	}
	if device == "" {
		return nil
	}

	services := make(map[dbus.ObjectPath]string)
	for path, ifaces := range objects {
		svc, ok := ifaces[bluezGattService]
		if !ok || !strings.HasPrefix(string(path), string(device)+"/") {
			continue
		}
		services[path] = strings.ToLower(variantString(svc["UUID"]))
	}

	chars := make(map[charKey]bluezChar)
	for path, ifaces := range objects {
		ch, ok := ifaces[bluezGattChar]
		if !ok {
			continue
		}
		svcPath, _ := ch["Service"].Value().(dbus.ObjectPath)
		svcUUID, ok := services[svcPath]
		if !ok {
			continue
		}

		var props Property
		flags, _ := ch["Flags"].Value().([]string)
		for _, f := range flags {
			props |= ParseProperty(f)
		}
		key := charKey{svcUUID, strings.ToLower(variantString(ch["UUID"]))}
		chars[key] = bluezChar{path: path, props: props}
	}
	return chars
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
