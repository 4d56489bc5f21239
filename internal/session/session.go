package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chaz8081/blenumerator/internal/ble"
	"github.com/chaz8081/blenumerator/internal/purpose"
)

// Prompter reads one line of operator input per call. Any error it returns
// ends the session.
type Prompter interface {
	Prompt(label string) (string, error)
}

// Options configures a Session.
type Options struct {
	ScanWindow time.Duration // discovery window, default 10s
}

// Session is the interactive state machine. It is not safe for concurrent
// use; Run owns it until it returns.
type Session struct {
	adapter ble.Adapter
	engine  *purpose.Engine
	in      Prompter
	out     io.Writer
	log     *slog.Logger
	opts    Options

	state State

	// Valid only while a device session is active; dropped on disconnect.
	device   ble.Device
	conn     ble.Connection
	services []ble.Service
	readable []ble.Characteristic
	writable []ble.Characteristic
}

// New creates a Session. Menus are printed to out, log events go to logger.
func New(adapter ble.Adapter, engine *purpose.Engine, in Prompter, out io.Writer, logger *slog.Logger, opts Options) *Session {
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = ble.DefaultScanWindow
	}
	return &Session{
		adapter: adapter,
		engine:  engine,
		in:      in,
		out:     out,
		log:     logger,
		opts:    opts,
		state:   Idle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Run shows the main menu until the operator exits. It returns nil on a
// normal exit, the prompt error on EOF or interrupt, or ctx.Err() once ctx
// is done. Faults inside a device session are logged and never returned.
func (s *Session) Run(ctx context.Context) error {
	defer func() { s.state = Exited }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.state = Idle

		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "--- Main Menu ---")
		fmt.Fprintln(s.out, "1. Scan for Devices")
		fmt.Fprintln(s.out, "2. Exit")
		choice, err := s.prompt("Select an option (1-2): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			if err := s.scanAndSelect(ctx); err != nil {
				return err
			}
		case "2":
			s.log.Info("Exiting...")
			return nil
		default:
			s.log.Error("Invalid option. Choose 1-2.")
		}
	}
}

// scanAndSelect runs Scanning and DeviceListed, then hands the chosen device
// to the device boundary. Only terminal errors are returned.
func (s *Session) scanAndSelect(ctx context.Context) error {
	s.state = Scanning
	s.log.Info(fmt.Sprintf("Scanning for BLE devices (%s)...", s.opts.ScanWindow))

	devices, err := ble.ScanForDevices(ctx, s.adapter, s.opts.ScanWindow)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error(fmt.Sprintf("Scan failed: %v", err))
		s.state = Idle
		return nil
	}
	if len(devices) == 0 {
		s.log.Warn("No devices found.")
		s.state = Idle
		return nil
	}
	for _, d := range devices {
		s.log.Info(fmt.Sprintf("Discovered: %s - %s", d.Address, d.DisplayName()))
	}

	for {
		s.state = DeviceListed
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "Discovered Devices:")
		for i, d := range devices {
			fmt.Fprintf(s.out, "%d. %s (%s)\n", i+1, d.DisplayName(), d.Address)
		}

		line, err := s.prompt(fmt.Sprintf("Select a device (1-%d): ", len(devices)))
		if err != nil {
			return err
		}
		idx, err := parseIndex(line, len(devices))
		if err != nil {
			s.log.Error(selectionMessage(err))
			continue
		}
		return s.interact(ctx, devices[idx])
	}
}

// interact is the device boundary. Any fault below it, panics included, is
// logged once against the device and the session falls back to Idle with
// the connection closed.
func (s *Session) interact(ctx context.Context, dev ble.Device) (err error) {
	s.device = dev
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Sprintf("Error with %s (%s): %v", dev.DisplayName(), dev.Address, r))
			err = nil
		}
		s.release()
	}()

	err = s.connectAndInteract(ctx, dev)
	if err == nil || isTerminal(ctx, err) {
		return err
	}
	s.log.Error(fmt.Sprintf("Error with %s (%s): %v", dev.DisplayName(), dev.Address, err))
	return nil
}

func (s *Session) connectAndInteract(ctx context.Context, dev ble.Device) error {
	name, addr := dev.DisplayName(), dev.Address

	s.state = Connecting
	s.log.Info(fmt.Sprintf("Connecting to %s (%s)...", name, addr))
	conn, err := s.adapter.Connect(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error(fmt.Sprintf("Failed to connect to %s (%s): %v", name, addr, err))
		return nil
	}
	s.conn = conn
	if !conn.IsConnected() {
		s.log.Error(fmt.Sprintf("Failed to connect to %s (%s)", name, addr))
		return nil
	}
	s.log.Info(fmt.Sprintf("Connected to %s (%s)", name, addr))

	s.state = Enumerating
	if err := s.enumerate(ctx); err != nil {
		return err
	}

	return s.deviceMenu(ctx)
}

// enumerate snapshots the GATT tree once and splits it into the readable
// and writable subsets, keeping discovery order.
func (s *Session) enumerate(ctx context.Context) error {
	services, err := s.conn.Services(ctx)
	if err != nil {
		return fmt.Errorf("enumerate services: %w", err)
	}

	s.services = services
	s.readable, s.writable = nil, nil
	for _, svc := range services {
		for _, c := range svc.Characteristics {
			if c.Readable() {
				s.readable = append(s.readable, c)
			}
			if c.Writable() {
				s.writable = append(s.writable, c)
			}
		}
	}

	s.listCharacteristics()
	return nil
}

// listCharacteristics logs the snapshot with a freshly inferred purpose for
// every characteristic.
func (s *Session) listCharacteristics() {
	s.log.Info("Services and Characteristics:")
	for _, svc := range s.services {
		s.log.Info(fmt.Sprintf("Service: %s - %s", svc.UUID, s.engine.DescribeService(svc.UUID)))
		for _, c := range svc.Characteristics {
			s.log.Info(fmt.Sprintf("  Characteristic: %s - Properties: [%s] - Purpose: %s",
				c.UUID, c.Properties, s.engine.Infer(c.UUID, c.Properties, nil)))
		}
	}
}

func (s *Session) deviceMenu(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.conn.IsConnected() {
			s.log.Error(fmt.Sprintf("Connection to %s (%s) lost", s.device.DisplayName(), s.device.Address))
			return nil
		}
		s.state = Interacting

		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "--- Device Menu ---")
		fmt.Fprintln(s.out, "1. List Characteristics")
		fmt.Fprintln(s.out, "2. Read from a Characteristic")
		fmt.Fprintln(s.out, "3. Write to a Characteristic")
		fmt.Fprintln(s.out, "4. Disconnect")
		choice, err := s.prompt("Select an option (1-4): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			s.listCharacteristics()
		case "2":
			err = s.readMenu(ctx)
		case "3":
			err = s.writeMenu(ctx)
		case "4":
			s.disconnect()
			return nil
		default:
			s.log.Error("Invalid option. Choose 1-4.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) readMenu(ctx context.Context) error {
	if len(s.readable) == 0 {
		s.log.Warn("No readable characteristics available.")
		return nil
	}
	c, ok, err := s.choose("Readable Characteristics:", s.readable)
	if err != nil || !ok {
		return err
	}

	value, err := s.conn.Read(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error(fmt.Sprintf("Failed to read %s: %v", c.UUID, err))
		return nil
	}
	if value == nil {
		value = []byte{}
	}

	s.log.Info(fmt.Sprintf("Value of %s: %s (Decimal: %s) - Purpose: %s",
		c.UUID, hex.EncodeToString(value), purpose.Decimal(value), s.engine.Infer(c.UUID, c.Properties, value)))
	return nil
}

func (s *Session) writeMenu(ctx context.Context) error {
	if len(s.writable) == 0 {
		s.log.Warn("No writable characteristics available.")
		return nil
	}
	c, ok, err := s.choose("Writable Characteristics:", s.writable)
	if err != nil || !ok {
		return err
	}

	raw, err := s.prompt("Enter hex value to write (e.g., '010203'): ")
	if err != nil {
		return err
	}
	data, err := ParseHex(raw)
	if err != nil {
		s.log.Error("Invalid hex string. Use format like '010203'.")
		return nil
	}

	if err := s.conn.Write(ctx, c, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error(fmt.Sprintf("Failed to write to %s: %v", c.UUID, err))
		return nil
	}
	s.log.Info(fmt.Sprintf("Wrote %s to %s", raw, c.UUID))
	return nil
}

// choose lists chars and asks for a 1-based index. ok is false when the
// answer was invalid; that has already been logged.
func (s *Session) choose(title string, chars []ble.Characteristic) (ble.Characteristic, bool, error) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, title)
	for i, c := range chars {
		fmt.Fprintf(s.out, "%d. %s - Properties: [%s]\n", i+1, c.UUID, c.Properties)
	}

	line, err := s.prompt(fmt.Sprintf("Select a characteristic (1-%d): ", len(chars)))
	if err != nil {
		return ble.Characteristic{}, false, err
	}
	idx, err := parseIndex(line, len(chars))
	if err != nil {
		s.log.Error(selectionMessage(err))
		return ble.Characteristic{}, false, nil
	}
	return chars[idx], true, nil
}

func (s *Session) disconnect() {
	s.state = Disconnecting
	s.log.Info("Disconnecting...")
	conn := s.conn
	s.conn = nil
	if err := conn.Disconnect(); err != nil {
		s.log.Warn(fmt.Sprintf("Disconnect from %s (%s) reported: %v", s.device.DisplayName(), s.device.Address, err))
	}
}

// release closes any connection still open and discards every snapshot
// taken from it.
func (s *Session) release() {
	if s.conn != nil {
		if err := s.conn.Disconnect(); err != nil {
			s.log.Warn(fmt.Sprintf("Disconnect from %s (%s) reported: %v", s.device.DisplayName(), s.device.Address, err))
		}
		s.conn = nil
	}
	s.device = ble.Device{}
	s.services = nil
	s.readable = nil
	s.writable = nil
	s.state = Idle
}

func (s *Session) prompt(label string) (string, error) {
	line, err := s.in.Prompt(label)
	if err != nil {
		return "", &inputError{err: err}
	}
	return strings.TrimSpace(line), nil
}

// isTerminal reports whether err must end the whole session rather than
// just the device session.
func isTerminal(ctx context.Context, err error) bool {
	var ie *inputError
	return errors.As(err, &ie) || ctx.Err() != nil
}
