// Package watch provides file watching for kdlgen's regenerate-on-save
// workflow. It monitors input documents for changes, debounces rapid
// events, and re-runs the conversion automatically.
package watch
