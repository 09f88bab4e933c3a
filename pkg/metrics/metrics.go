package metrics

import (
	"sync/atomic"

	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

// Metrics defines the interface for collecting and reporting build statistics.
type Metrics interface {
	AddDirsEnsured(n int64)
	AddDirsPlanned(n int64)
	AddFilesCreated(n int64)
	AddFilesOverwritten(n int64)
	AddFilesSkipped(n int64)
	AddFilesPlanned(n int64)
	AddBytesWritten(n int64)
	Log()
}

// BuildMetrics holds the atomic counters for tracking a build's progress.
// It is the concrete implementation of the Metrics interface.
type BuildMetrics struct {
	DirsEnsured      atomic.Int64
	DirsPlanned      atomic.Int64
	FilesCreated     atomic.Int64
	FilesOverwritten atomic.Int64
	FilesSkipped     atomic.Int64
	FilesPlanned     atomic.Int64
	BytesWritten     atomic.Int64
}

func (m *BuildMetrics) AddDirsEnsured(n int64)      { m.DirsEnsured.Add(n) }
func (m *BuildMetrics) AddDirsPlanned(n int64)      { m.DirsPlanned.Add(n) }
func (m *BuildMetrics) AddFilesCreated(n int64)     { m.FilesCreated.Add(n) }
func (m *BuildMetrics) AddFilesOverwritten(n int64) { m.FilesOverwritten.Add(n) }
func (m *BuildMetrics) AddFilesSkipped(n int64)     { m.FilesSkipped.Add(n) }
func (m *BuildMetrics) AddFilesPlanned(n int64)     { m.FilesPlanned.Add(n) }
func (m *BuildMetrics) AddBytesWritten(n int64)     { m.BytesWritten.Add(n) }

// Log prints a summary of the build.
func (m *BuildMetrics) Log() {
	plog.Info("SUM",
		"dirsEnsured", m.DirsEnsured.Load(),
		"dirsPlanned", m.DirsPlanned.Load(),
		"filesCreated", m.FilesCreated.Load(),
		"filesOverwritten", m.FilesOverwritten.Load(),
		"filesSkipped", m.FilesSkipped.Load(),
		"filesPlanned", m.FilesPlanned.Load(),
		"bytesWritten", m.BytesWritten.Load(),
	)
}

// NoopMetrics is an implementation of the Metrics interface that performs no operations.
// It can be used to disable metrics collection without changing the calling code.
type NoopMetrics struct{}

func (m *NoopMetrics) AddDirsEnsured(n int64)      {}
func (m *NoopMetrics) AddDirsPlanned(n int64)      {}
func (m *NoopMetrics) AddFilesCreated(n int64)     {}
func (m *NoopMetrics) AddFilesOverwritten(n int64) {}
func (m *NoopMetrics) AddFilesSkipped(n int64)     {}
func (m *NoopMetrics) AddFilesPlanned(n int64)     {}
func (m *NoopMetrics) AddBytesWritten(n int64)     {}
func (m *NoopMetrics) Log()                        {}

// Statically assert that our types implement the interface.
var _ Metrics = (*BuildMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
