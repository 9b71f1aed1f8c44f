package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/searchktools/pool-server/core/http"
	"github.com/searchktools/pool-server/core/netutil"
	"github.com/searchktools/pool-server/core/pools"
	"github.com/searchktools/pool-server/core/router"
)

// EngineConfig configures an Engine
type EngineConfig struct {
	// Logger receives accept, decode and write failures.
	// Defaults to the logrus standard logger.
	Logger logrus.FieldLogger

	// Per-connection deadlines. Zero disables them.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Engine accepts connections and hands each one to the worker pool as a
// single job: decode, route, encode, write, close.
type Engine struct {
	pool   *pools.WorkerPool
	router router.Router
	log    logrus.FieldLogger

	readTimeout  time.Duration
	writeTimeout time.Duration

	accepted atomic.Uint64
	rejected atomic.Uint64
}

// NewEngine creates an engine that dispatches onto pool and answers with r
func NewEngine(pool *pools.WorkerPool, r router.Router, cfg EngineConfig) (*Engine, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if r == nil {
		return nil, ErrNilRouter
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Engine{
		pool:         pool,
		router:       r,
		log:          cfg.Logger,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}, nil
}

// ListenAndServe opens the listening socket described by lc and serves it
// until ctx is cancelled
func (e *Engine) ListenAndServe(ctx context.Context, lc netutil.ListenConfig) error {
	ln, err := netutil.Listen(ctx, lc)
	if err != nil {
		return fmt.Errorf("core: listen on %s: %w", lc.Address, err)
	}
	return e.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled, the listener is
// closed, or the pool stops taking jobs. Serve takes ownership of ln.
//
// It returns nil after cancellation. Accept failures are logged and retried
// with backoff.
func (e *Engine) Serve(ctx context.Context, ln net.Listener) error {
	// Closing the listener is what unblocks Accept on cancellation
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	e.log.WithField("addr", ln.Addr().String()).Info("accepting connections")

	var tempDelay time.Duration // how long to sleep on accept failure
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("core: accept: %w", err)
			}

			if tempDelay == 0 {
				tempDelay = minAcceptDelay
			} else {
				tempDelay = min(tempDelay*2, maxAcceptDelay)
			}
			e.log.WithError(err).WithField("retry_in", tempDelay).Warn("accept failed")

			select {
			case <-time.After(tempDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		tempDelay = 0

		if err := e.dispatch(conn); err != nil {
			return err
		}
	}
}

// dispatch submits one job for conn. If the pool refuses it the connection
// is closed and the error returned so Serve stops accepting.
func (e *Engine) dispatch(conn net.Conn) error {
	e.accepted.Add(1)
	id := uuid.NewString()

	err := e.pool.Submit(func() {
		e.handleConnection(id, conn)
	})
	if err != nil {
		e.rejected.Add(1)
		conn.Close()
		return fmt.Errorf("core: stop accepting: %w", err)
	}
	return nil
}

// handleConnection runs on a worker. It never returns an error: every failure
// ends in a log line and a closed connection.
func (e *Engine) handleConnection(id string, conn net.Conn) {
	log := e.log.WithFields(logrus.Fields{
		"conn":   id,
		"remote": conn.RemoteAddr().String(),
	})

	defer func() {
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("close failed")
		}
	}()

	if e.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(e.readTimeout))
	}

	req, err := http.ReadRequest(bufio.NewReader(conn))
	var resp *http.Response
	switch {
	case err == nil:
		resp = e.router.Route(req)
		log = log.WithFields(logrus.Fields{
			"method": req.Method.String(),
			"path":   req.Path(),
		})
	case http.IsDecodeError(err):
		log.WithError(err).Warn("bad request")
		resp = http.BadRequest()
		resp.SetContentLength()
	default:
		log.WithError(err).Warn("read failed, dropping connection")
		return
	}

	if e.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	}

	if _, err := resp.WriteTo(conn); err != nil {
		log.WithError(err).Warn("write failed, dropping connection")
		return
	}

	log.WithField("status", resp.Status).Debug("served")
}

// Accepted returns the number of connections accepted so far
func (e *Engine) Accepted() uint64 {
	return e.accepted.Load()
}

// Rejected returns the number of accepted connections the pool refused
func (e *Engine) Rejected() uint64 {
	return e.rejected.Load()
}
