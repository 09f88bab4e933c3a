package treebuild

import (
	"sync"

	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

// EventKind names the outcome of a single directory or file decision.
type EventKind int

const (
	DirCreated EventKind = iota
	DirExists
	DirPlanned
	FileCreated
	FileOverwritten
	FileSkipped
	FileWritePlanned
	FileOverwritePlanned
)

var eventKindNames = map[EventKind]string{
	DirCreated:           "dir created",
	DirExists:            "dir exists",
	DirPlanned:           "dir planned",
	FileCreated:          "file created",
	FileOverwritten:      "file overwritten",
	FileSkipped:          "file skipped",
	FileWritePlanned:     "file write planned",
	FileOverwritePlanned: "file overwrite planned",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsDryRun reports whether the event describes an action that was not performed.
func (k EventKind) IsDryRun() bool {
	return k == DirPlanned || k == FileWritePlanned || k == FileOverwritePlanned
}

// Event is emitted once per directory ensure and once per file decision.
type Event struct {
	Kind EventKind
	// Path is the resolved absolute path the decision was made for.
	Path string
	// Size is the content length in bytes for file events.
	Size int
}

// Reporter receives build events in the order they happen.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// LogReporter writes events through plog. With Verbose unset, per-entry lines
// drop to debug level.
type LogReporter struct {
	Verbose bool
}

func (r LogReporter) Report(e Event) {
	log := plog.Debug
	if r.Verbose {
		log = plog.Info
	}
	switch e.Kind {
	case DirCreated, DirExists, DirPlanned:
		log(prefix(e.Kind)+e.Kind.String(), "path", e.Path)
	default:
		log(prefix(e.Kind)+e.Kind.String(), "path", e.Path, "bytes", e.Size)
	}
}

func prefix(k EventKind) string {
	if k.IsDryRun() {
		return "[DRY RUN] "
	}
	return ""
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns only the kinds of the recorded events, in order.
func (r *Recorder) Kinds() []EventKind {
	events := r.Events()
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

var _ Reporter = LogReporter{}
var _ Reporter = (*Recorder)(nil)
var _ Reporter = ReporterFunc(nil)
