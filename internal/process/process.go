// Package process observes which processes run on the host.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	gopsprocess "github.com/shirou/gopsutil/v4/process"
)

// Snapshot is the set of process names observed at one instant. Two
// processes sharing a name are indistinguishable.
type Snapshot map[string]struct{}

// NewSnapshot builds a Snapshot from names
func NewSnapshot(names ...string) Snapshot {
	s := make(Snapshot, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Has reports whether name is part of the snapshot
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Disappeared returns the names present in prev but absent from s, sorted
func (s Snapshot) Disappeared(prev Snapshot) []string {
	var gone []string
	for name := range prev {
		if !s.Has(name) {
			gone = append(gone, name)
		}
	}
	sort.Strings(gone)
	return gone
}

//go:generate mockgen -destination=mocks/mock_lister.go -package=mocks -source=process.go Lister

// Lister enumerates the running processes
type Lister interface {
	// Snapshot returns the names of all running processes
	Snapshot(ctx context.Context) (Snapshot, error)
}

// systemLister implements Lister using gopsutil
type systemLister struct{}

// NewSystemLister creates a Lister backed by the operating system process table
func NewSystemLister() Lister {
	return &systemLister{}
}

func (*systemLister) Snapshot(ctx context.Context) (Snapshot, error) {
	procs, err := gopsprocess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	snapshot := make(Snapshot, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// The process may have exited since the listing
			slog.Debug("Skipping process", "pid", p.Pid, "error", err)
			continue
		}
		if name == "" {
			continue
		}
		snapshot[name] = struct{}{}
	}
	return snapshot, nil
}
