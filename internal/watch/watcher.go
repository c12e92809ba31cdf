package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/kdlgen/internal/diff"
)

// RunFunc is called each time the watcher triggers a regeneration.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult holds the output of a single conversion so the watcher can
// report what changed since the previous run.
type RunResult struct {
	// OutputPath is where the KDL was written; empty for dry runs.
	OutputPath string

	// Output is the rendered document.
	Output []byte
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the input documents to watch.
	Files []string

	// Debounce is the quiet period before triggering a rebuild.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by renaming keep triggering events.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	tracked, dirs, err := resolve(opts.Files)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}

	r.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, func(paths []string) {
		r.run(sigCtx, strings.Join(paths, ", "))
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) || !tracked[filepath.Clean(event.Name)] {
				continue
			}

			opts.Logger.Debug("input changed",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// resolve returns the absolute input paths and their sorted parent dirs.
func resolve(files []string) (map[string]bool, []string, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no input files to watch")
	}

	tracked := make(map[string]bool, len(files))
	seen := make(map[string]bool)

	var dirs []string

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving input %q: %w", f, err)
		}

		if _, err := os.Stat(abs); err != nil {
			return nil, nil, fmt.Errorf("watching input %q: %w", f, err)
		}

		tracked[abs] = true

		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	sort.Strings(dirs)

	return tracked, dirs, nil
}

type runner struct {
	opts  Options
	runFn RunFunc

	mu       sync.Mutex
	previous []byte
	hasRun   bool
}

// run executes a single conversion and prints the status line.
func (r *runner) run(ctx context.Context, trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Format("15:04:05")

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(r.opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	dest := result.OutputPath
	if dest == "" {
		dest = "dry-run"
	}

	fmt.Fprintf(r.opts.Out, "[%s] %s → OK (%d bytes, %s)\n", now, trigger, len(result.Output), dest)

	if r.hasRun {
		fmt.Fprintf(r.opts.Out, "  changes: %s\n", r.describe(result.Output))
	}

	r.previous = result.Output
	r.hasRun = true
}

func (r *runner) describe(output []byte) string {
	res, err := diff.Compute(string(r.previous), string(output), diff.DefaultOptions())
	if err != nil {
		return err.Error()
	}

	return res.Summary()
}

// isRelevant filters out events that cannot change an input's content.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
