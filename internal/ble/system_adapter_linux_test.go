//go:build linux

package ble

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func bluezTree() managedObjects {
	v := dbus.MakeVariant
	return managedObjects{
		"/org/bluez/hci0": {
			"org.bluez.Adapter1": {"Address": v("00:11:22:33:44:55")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01": {
			bluezDevice: {"Address": v("AA:BB:CC:DD:EE:01")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010": {
			bluezGattService: {"UUID": v("19B10000-E8F2-537E-4F6C-D104768A1214")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010/char0011": {
			bluezGattChar: {
				"UUID":    v("19b10001-e8f2-537e-4f6c-d104768a1214"),
				"Service": v(dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010")),
				"Flags":   v([]string{"read", "notify"}),
			},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010/char0014": {
			bluezGattChar: {
				"UUID":    v("19b10002-e8f2-537e-4f6c-d104768a1214"),
				"Service": v(dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010")),
				"Flags":   v([]string{"write-without-response", "write", "reliable-write"}),
			},
		},
		// Another device exposing the same service must not leak in.
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_02": {
			bluezDevice: {"Address": v("AA:BB:CC:DD:EE:02")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_02/service0010": {
			bluezGattService: {"UUID": v("19b10000-e8f2-537e-4f6c-d104768a1214")},
		},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_02/service0010/char0011": {
			bluezGattChar: {
				"UUID":    v("00002a19-0000-1000-8000-00805f9b34fb"),
				"Service": v(dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_02/service0010")),
				"Flags":   v([]string{"indicate"}),
			},
		},
	}
}

func TestBluezCharacteristicsMapsFlags(t *testing.T) {
	const svc = "19b10000-e8f2-537e-4f6c-d104768a1214"

	chars := bluezCharacteristics(bluezTree(), "aa:bb:cc:dd:ee:01")
	if len(chars) != 2 {
		t.Fatalf("got %d characteristics, want 2: %v", len(chars), chars)
	}

	tests := []struct {
		uuid string
		want Property
		path dbus.ObjectPath
	}{
		{"19b10001-e8f2-537e-4f6c-d104768a1214", PropRead | PropNotify, "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010/char0011"},
		{"19b10002-e8f2-537e-4f6c-d104768a1214", PropWriteWithoutResponse | PropWrite, "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_01/service0010/char0014"},
	}
	for _, tt := range tests {
		got, ok := chars[charKey{svc, tt.uuid}]
		if !ok {
			t.Errorf("characteristic %s missing", tt.uuid)
			continue
		}
		if got.props != tt.want {
			t.Errorf("%s props = %q, want %q", tt.uuid, got.props, tt.want)
		}
		if got.path != tt.path {
			t.Errorf("%s path = %s, want %s", tt.uuid, got.path, tt.path)
		}
	}
}

func TestBluezCharacteristicsUnknownDevice(t *testing.T) {
	if chars := bluezCharacteristics(bluezTree(), "AA:BB:CC:DD:EE:FF"); len(chars) != 0 {
		t.Errorf("got %v, want no characteristics", chars)
	}
}

func TestPropertiesFromPlatformSnapshot(t *testing.T) {
	key := charKey{"19b10000-e8f2-537e-4f6c-d104768a1214", "19b10001-e8f2-537e-4f6c-d104768a1214"}
	conn := &systemConnection{platform: platformGATT{chars: map[charKey]bluezChar{
		key: {props: PropRead | PropNotify},
	}}}

	if got := conn.properties(key, nil); got != PropRead|PropNotify {
		t.Errorf("properties = %q, want read, notify", got)
	}
	if got := conn.properties(charKey{"x", "y"}, nil); got != 0 {
		t.Errorf("properties of unknown characteristic = %q, want none", got)
	}
}
