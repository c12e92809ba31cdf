package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_NoDifferences(t *testing.T) {
	in := writeFile(t, "Cargo.toml", cargoTOML)
	existing := writeFile(t, "Cargo.kdl", cargoKDL)

	stdout, _, err := executeCommand("diff", in, "--existing", existing)
	require.NoError(t, err)
	assert.Equal(t, "No differences found.\n", stdout)
}

func TestDiff_Differences(t *testing.T) {
	in := writeFile(t, "Cargo.toml", cargoTOML)
	existing := writeFile(t, "Cargo.kdl", "package name=r\"kdl\" version=r\"0.1.0\"\n")

	stdout, _, err := executeCommand("--no-color", "diff", in, "--existing", existing)
	requireExitCode(t, err, exitDifferences)
	assert.Contains(t, err.Error(), "1 line(s) added, 1 line(s) removed")

	assert.NotContains(t, stdout, "\033[")
	assert.Contains(t, stdout, "--- "+existing)
	assert.Contains(t, stdout, "+++ "+in+" (generated)")
	assert.Contains(t, stdout, "-package name=r\"kdl\" version=r\"0.1.0\"")
	assert.Contains(t, stdout, "+"+cargoKDL)
}

func TestDiff_UsesEncodingSettings(t *testing.T) {
	in := writeFile(t, "Cargo.toml", cargoTOML)
	existing := writeFile(t, "Cargo.kdl", cargoKDL)

	_, _, err := executeCommand("--compact", "diff", in, "--existing", existing)
	requireExitCode(t, err, exitDifferences)
}

func TestDiff_UsageErrors(t *testing.T) {
	in := writeFile(t, "Cargo.toml", cargoTOML)

	_, _, err := executeCommand("diff", in)
	requireExitCode(t, err, exitUsage)
	assert.Contains(t, err.Error(), "--existing")

	_, _, err = executeCommand("diff", in, "--existing", in, "--context=-1")
	requireExitCode(t, err, exitUsage)
}

func TestDiff_MissingExisting(t *testing.T) {
	in := writeFile(t, "Cargo.toml", cargoTOML)

	_, _, err := executeCommand("diff", in, "--existing", filepath.Join(t.TempDir(), "nope.kdl"))
	requireExitCode(t, err, exitParse)
	assert.Contains(t, err.Error(), "reading existing KDL")
}
