/*
Package poolserver provides a minimal concurrent HTTP/1.x listener built around a
fixed-size worker pool.

Every accepted connection becomes one job on a shared, unbounded FIFO queue. A worker
(a goroutine locked to its own OS thread) picks the job up, decodes a single request,
routes it, writes the response and closes the connection. There is no keep-alive,
chunked encoding or TLS.

Quick Start

package main

import (
    "log"
    "os"

    "github.com/searchktools/pool-server/app"
    "github.com/searchktools/pool-server/config"
)

func main() {
    cfg, err := config.Load(os.Args[1:])
    if err != nil {
        log.Fatal(err)
    }

    application, err := app.New(cfg)
    if err != nil {
        log.Fatal(err)
    }

    application.Run()
}

Then:

    curl -i http://127.0.0.1:8080/sleep

Modules

  - app: wiring, logging setup and signal-driven shutdown
  - config: flags, YAML file and POOLSERVER_* environment variables
  - core: the connection acceptor (Engine)
  - core/http: request decoder and response encoder
  - core/router: the static (method, path) routing table
  - core/pools: the worker pool and tiered buffer pool
  - core/netutil: listening socket setup (SO_REUSEADDR, SO_REUSEPORT)

Shutdown

Cancelling the context passed to Engine.Serve closes the listener. The pool then stops
taking jobs, lets every in-flight job finish and drops jobs that were still queued.
*/
package poolserver
