package output

import (
	"path/filepath"
	"strings"
)

// Extension is appended to generated files.
const Extension = ".kdl"

var compressionExts = map[string]bool{".gz": true, ".gzip": true, ".zst": true, ".zstd": true}

// PathFor returns the destination for input inside dir. Compression and
// format extensions are replaced by [Extension]. An empty dir keeps the
// file next to its input.
func PathFor(dir, input string) string {
	base := filepath.Base(input)

	if ext := strings.ToLower(filepath.Ext(base)); compressionExts[ext] {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	base = strings.TrimSuffix(base, filepath.Ext(base)) + Extension

	if dir == "" {
		dir = filepath.Dir(input)
	}

	return filepath.Join(dir, base)
}
