package metrics

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/paulschiretz/pgl-tree/pkg/plog"
)

func TestBuildMetrics(t *testing.T) {
	m := &BuildMetrics{}
	m.AddDirsEnsured(3)
	m.AddFilesCreated(2)
	m.AddFilesOverwritten(1)
	m.AddFilesSkipped(4)
	m.AddBytesWritten(11)

	if got := m.DirsEnsured.Load(); got != 3 {
		t.Errorf("expected 3 dirs ensured, got %d", got)
	}
	if got := m.FilesSkipped.Load(); got != 4 {
		t.Errorf("expected 4 files skipped, got %d", got)
	}

	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() { plog.SetOutput(os.Stderr) })

	m.Log()
	output := logBuf.String()
	for _, want := range []string{"msg=SUM", "dirsEnsured=3", "filesCreated=2", "filesOverwritten=1", "filesSkipped=4", "bytesWritten=11"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected summary to contain %q, got: %s", want, output)
		}
	}
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = &NoopMetrics{}
	// Must not panic and must not log anything.
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() { plog.SetOutput(os.Stderr) })

	m.AddDirsEnsured(1)
	m.AddFilesCreated(1)
	m.Log()
	if logBuf.Len() != 0 {
		t.Errorf("expected no output from NoopMetrics, got: %s", logBuf.String())
	}
}
