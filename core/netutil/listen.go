package netutil

import (
	"context"
	"errors"
	"net"
)

// ErrReusePortUnsupported is returned when SO_REUSEPORT is requested on a
// platform that does not have it
var ErrReusePortUnsupported = errors.New("netutil: SO_REUSEPORT not supported on this platform")

// ListenConfig describes the listening socket
type ListenConfig struct {
	Network   string // "tcp", "tcp4" or "tcp6"; defaults to "tcp"
	Address   string // e.g. ":8080"
	ReusePort bool   // set SO_REUSEPORT so several processes can share the port
}

// Listen opens a TCP listener with SO_REUSEADDR set (and SO_REUSEPORT when
// asked for)
func Listen(ctx context.Context, cfg ListenConfig) (net.Listener, error) {
	network := cfg.Network
	if network == "" {
		network = "tcp"
	}

	lc := net.ListenConfig{
		Control: socketControl(cfg.ReusePort),
	}
	return lc.Listen(ctx, network, cfg.Address)
}
