package ble

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPropertyNames(t *testing.T) {
	tests := []struct {
		p    Property
		want string
	}{
		{0, ""},
		{PropRead, "read"},
		{PropRead | PropNotify, "read, notify"},
		{PropWrite | PropWriteWithoutResponse, "write-without-response, write"},
		{PropIndicate | PropBroadcast, "broadcast, indicate"},
	}

	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Property(0x%02x).String() = %q, want %q", uint8(tt.p), got, tt.want)
		}
	}
}

func TestPropertyBitsMatchDeclarationLayout(t *testing.T) {
	bits := map[Property]uint8{
		PropBroadcast:            0x01,
		PropRead:                 0x02,
		PropWriteWithoutResponse: 0x04,
		PropWrite:                0x08,
		PropNotify:               0x10,
		PropIndicate:             0x20,
	}
	for p, want := range bits {
		if uint8(p) != want {
			t.Errorf("%s = 0x%02x, want 0x%02x", p, uint8(p), want)
		}
	}
}

func TestParseProperty(t *testing.T) {
	for _, name := range []string{"read", "write", "write-without-response", "notify", "indicate"} {
		p := ParseProperty(name)
		if p == 0 {
			t.Errorf("ParseProperty(%q) = 0", name)
			continue
		}
		if p.String() != name {
			t.Errorf("ParseProperty(%q).String() = %q", name, p.String())
		}
	}
	if ParseProperty(" READ ") != PropRead {
		t.Error("ParseProperty should ignore case and surrounding space")
	}
	if ParseProperty("teleport") != 0 {
		t.Error("ParseProperty of an unknown flag should be 0")
	}
}

func TestPropertyHas(t *testing.T) {
	p := PropRead | PropNotify
	if !p.Has(PropRead) || !p.Has(PropNotify) || !p.Has(PropRead|PropNotify) {
		t.Error("Has should report every set bit")
	}
	if p.Has(PropWrite) || p.Has(PropRead|PropWrite) {
		t.Error("Has should require all bits")
	}
	if p.Has(0) {
		t.Error("Has(0) should be false")
	}
}

func TestCharacteristicReadableWritable(t *testing.T) {
	tests := []struct {
		props              Property
		readable, writable bool
	}{
		{PropRead, true, false},
		{PropWrite, false, true},
		{PropWriteWithoutResponse, false, true},
		{PropNotify, false, false},
		{PropRead | PropWrite | PropNotify, true, true},
	}

	for _, tt := range tests {
		c := Characteristic{UUID: "x", Properties: tt.props}
		if c.Readable() != tt.readable {
			t.Errorf("[%s] Readable() = %v, want %v", tt.props, c.Readable(), tt.readable)
		}
		if c.Writable() != tt.writable {
			t.Errorf("[%s] Writable() = %v, want %v", tt.props, c.Writable(), tt.writable)
		}
	}
}

func TestDeviceDisplayName(t *testing.T) {
	if got := (Device{Address: "AA"}).DisplayName(); got != "Unnamed Device" {
		t.Errorf("DisplayName() = %q, want %q", got, "Unnamed Device")
	}
	if got := (Device{Address: "AA", Name: "Thermo"}).DisplayName(); got != "Thermo" {
		t.Errorf("DisplayName() = %q, want %q", got, "Thermo")
	}
}

func TestAwaitReturnsResult(t *testing.T) {
	v, err := await(context.Background(), func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("await() = %d, %v; want 7, nil", v, err)
	}
}

func TestAwaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	_, err := await(ctx, func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("await() error = %v, want context.DeadlineExceeded", err)
	}
}
