//go:build !linux

package bluetooth

import (
	"context"
	"runtime"

	log "github.com/sirupsen/logrus"
)

type unsupportedManager struct{}

// NewManager returns a Manager without adapters; only the Linux HCI stack is supported.
func NewManager() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) Adapters(ctx context.Context) ([]Adapter, error) {
	log.Warnf("bluetooth is not supported on %s", runtime.GOOS)
	return nil, nil
}
