package watch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Debouncer
// ---------------------------------------------------------------------------

func TestDebouncer_SingleEvent(t *testing.T) {
	var callCount atomic.Int32
	var lastPaths atomic.Value

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		callCount.Add(1)
		lastPaths.Store(paths)
	})
	defer d.Stop()

	d.Trigger("a.toml")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.Equal(t, []string{"a.toml"}, lastPaths.Load())
}

func TestDebouncer_MultipleEventsCoalesced(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(100*time.Millisecond, func(_ []string) {
		callCount.Add(1)
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger("Cargo.toml")
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestDebouncer_CollectsDistinctPaths(t *testing.T) {
	var lastPaths atomic.Value

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		lastPaths.Store(paths)
	})
	defer d.Stop()

	d.Trigger("values.yaml")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("data.json")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("values.yaml")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{"data.json", "values.yaml"}, lastPaths.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func(_ []string) {
		callCount.Add(1)
	})

	d.Trigger("a.toml")
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), callCount.Load())
}

// ---------------------------------------------------------------------------
// Event filtering
// ---------------------------------------------------------------------------

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"toml write", "Cargo.toml", fsnotify.Write, true},
		{"create event", "new.yaml", fsnotify.Create, true},
		{"remove event", "old.yaml", fsnotify.Remove, true},
		{"rename event", "renamed.json", fsnotify.Rename, true},
		{"hidden file", ".hidden", fsnotify.Write, false},
		{"swap file", "file.swp", fsnotify.Write, false},
		{"backup tilde", "file~", fsnotify.Write, false},
		{"emacs hash", "#file#", fsnotify.Write, false},
		{"zero op", "file.yaml", 0, false},
		{"chmod only", "file.yaml", fsnotify.Chmod, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: tt.path, Op: tt.op}
			assert.Equal(t, tt.want, isRelevant(event))
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "sub", "b.toml")

	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0o750))
	require.NoError(t, os.WriteFile(a, []byte("a: 1"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("b = 1"), 0o600))

	tracked, dirs, err := resolve([]string{b, a, a})
	require.NoError(t, err)
	assert.Len(t, tracked, 2)
	assert.True(t, tracked[a])
	assert.Equal(t, []string{dir, filepath.Join(dir, "sub")}, dirs)

	_, _, err = resolve(nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Run (integration)
// ---------------------------------------------------------------------------

// syncBuffer guards writes from the debouncer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRun_GracefulShutdown(t *testing.T) {
	input := writeInput(t, "replicas: 1")

	ctx, cancel := context.WithCancel(context.Background())

	var runCount atomic.Int32

	opts := DefaultOptions()
	opts.Files = []string{input}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			runCount.Add(1)
			return &RunResult{Output: []byte("replicas 1\n")}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	assert.GreaterOrEqual(t, runCount.Load(), int32(1))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not shut down in time")
	}
}

func TestRun_FileChangeTriggersRebuild(t *testing.T) {
	input := writeInput(t, "replicas: 1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		runCount atomic.Int32
		out      syncBuffer
	)

	opts := DefaultOptions()
	opts.Files = []string{input}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = &out

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			n := runCount.Add(1)
			return &RunResult{OutputPath: "values.kdl", Output: []byte("replicas " + string(rune('0'+n)) + "\n")}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	initialRuns := runCount.Load()

	require.NoError(t, os.WriteFile(input, []byte("replicas: 3"), 0o600))

	time.Sleep(300 * time.Millisecond)
	assert.Greater(t, runCount.Load(), initialRuns, "file change should trigger rebuild")

	cancel()
	<-done

	assert.Contains(t, out.String(), "(initial) → OK")
	assert.Contains(t, out.String(), "changes: 1 line(s) added, 1 line(s) removed")
}

func TestRun_IgnoresUnrelatedFiles(t *testing.T) {
	input := writeInput(t, "replicas: 1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runCount atomic.Int32

	opts := DefaultOptions()
	opts.Files = []string{input}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			runCount.Add(1)
			return &RunResult{}, nil
		})
	}()

	time.Sleep(200 * time.Millisecond)

	sibling := filepath.Join(filepath.Dir(input), "other.yaml")
	require.NoError(t, os.WriteFile(sibling, []byte("x: 1"), 0o600))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runCount.Load())

	cancel()
	<-done
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.NotNil(t, opts.Logger)
	assert.NotNil(t, opts.Out)
	assert.Empty(t, opts.Files)
}

// ---------------------------------------------------------------------------
// Run error paths
// ---------------------------------------------------------------------------

func TestRun_MissingInput(t *testing.T) {
	opts := DefaultOptions()
	opts.Files = []string{"/nonexistent/input/12345.yaml"}
	opts.Out = io.Discard

	err := Run(context.Background(), opts, func(_ context.Context) (*RunResult, error) {
		return &RunResult{}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching input")
}

func TestRun_RunFuncError(t *testing.T) {
	input := writeInput(t, "replicas: 1")

	ctx, cancel := context.WithCancel(context.Background())

	opts := DefaultOptions()
	opts.Files = []string{input}
	opts.Debounce = 50 * time.Millisecond

	var (
		callCount atomic.Int32
		out       syncBuffer
	)

	opts.Out = &out

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context) (*RunResult, error) {
			callCount.Add(1)
			return nil, errors.New("parse error")
		})
	}()

	time.Sleep(200 * time.Millisecond)
	assert.GreaterOrEqual(t, callCount.Load(), int32(1))

	cancel()
	<-done

	assert.Contains(t, out.String(), "ERROR: parse error")
}
