//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package netutil

import "syscall"

func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reusePort {
		return nil
	}
	return func(string, string, syscall.RawConn) error {
		return ErrReusePortUnsupported
	}
}
