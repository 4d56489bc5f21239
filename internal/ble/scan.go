package ble

import (
	"context"
	"fmt"
	"time"
)

// DefaultScanWindow is the discovery window used when none is configured.
const DefaultScanWindow = 10 * time.Second

// ScanForDevices scans for every advertising peripheral for the given window.
// The window elapsing is not an error; cancellation of ctx is.
func ScanForDevices(ctx context.Context, adapter Adapter, window time.Duration) ([]Device, error) {
	if window <= 0 {
		window = DefaultScanWindow
	}

	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	devices, err := adapter.Scan(scanCtx)
	if err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}
