package core

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/searchktools/pool-server/core/pools"
)

// Stats is a point-in-time snapshot of the engine and the pools it uses
type Stats struct {
	Accepted uint64          `json:"accepted"`
	Rejected uint64          `json:"rejected"`
	Workers  WorkerStats     `json:"workers"`
	Buffers  BufferPoolStats `json:"buffers"`

	pool pools.WorkerPoolStats
}

type WorkerStats struct {
	Size      int      `json:"size"`
	States    []string `json:"states"`
	Submitted uint64   `json:"submitted"`
	Completed uint64   `json:"completed"`
	Panicked  uint64   `json:"panicked"`
	Dropped   uint64   `json:"dropped"`
	Running   int      `json:"running"`
	Pending   int      `json:"pending"`
}

type BufferPoolStats struct {
	Gets uint64 `json:"gets"`
	Puts uint64 `json:"puts"`
}

// Stats returns statistics for the engine, its worker pool and the shared
// encode buffers
func (e *Engine) Stats() Stats {
	ps := e.pool.Stats()
	bs := pools.GlobalBufferStats()

	states := e.pool.WorkerStates()
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}

	return Stats{
		Accepted: e.accepted.Load(),
		Rejected: e.rejected.Load(),
		Workers: WorkerStats{
			Size:      ps.NumWorkers,
			States:    names,
			Submitted: ps.TasksSubmitted,
			Completed: ps.TasksCompleted,
			Panicked:  ps.TasksPanicked,
			Dropped:   ps.TasksDropped,
			Running:   ps.TasksRunning,
			Pending:   ps.TasksPending,
		},
		Buffers: BufferPoolStats{
			Gets: bs.TotalGets,
			Puts: bs.TotalPuts,
		},
		pool: ps,
	}
}

// Fields flattens the snapshot into log fields
func (s Stats) Fields() logrus.Fields {
	fields := s.pool.Fields()
	fields["accepted"] = s.Accepted
	fields["rejected"] = s.Rejected
	return fields
}

// StatsJSON returns the statistics as indented JSON
func (e *Engine) StatsJSON() string {
	data, _ := json.MarshalIndent(e.Stats(), "", "  ")
	return string(data)
}

// StatsText returns the statistics as human-readable text
func (e *Engine) StatsText() string {
	s := e.Stats()
	return fmt.Sprintf(`Server Statistics
=================

Connections:
  Accepted: %d
  Rejected: %d

Worker Pool:
  Workers:   %d %v
  Submitted: %d
  Completed: %d
  Panicked:  %d
  Dropped:   %d
  Running:   %d
  Pending:   %d

Encode Buffers:
  Gets: %d
  Puts: %d
`,
		s.Accepted, s.Rejected,
		s.Workers.Size, s.Workers.States,
		s.Workers.Submitted, s.Workers.Completed, s.Workers.Panicked,
		s.Workers.Dropped, s.Workers.Running, s.Workers.Pending,
		s.Buffers.Gets, s.Buffers.Puts,
	)
}
