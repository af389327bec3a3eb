package format

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes a shell script usable as a stand-in stylua.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fake binaries need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "stylua")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestFormatNoRange(t *testing.T) {
	// Fail when any flag other than the stdin marker shows up.
	bin := fakeBinary(t, `if [ "$1" != "-" ]; then echo "unexpected args: $@" >&2; exit 1; fi
cat`)
	r := &Runner{Bin: bin}
	out, err := r.Format(context.Background(), "local x = 1\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "local x = 1", out)
}

func TestFormatRangeFlags(t *testing.T) {
	bin := fakeBinary(t, `if [ "$1 $2 $3 $4 $5" != "--range-start 4 --range-end 9 -" ]; then
  echo "unexpected args: $@" >&2
  exit 1
fi
cat`)
	r := &Runner{Bin: bin}
	out, err := r.Format(context.Background(), "local x = 1", &Range{Start: 4, End: 9})
	require.NoError(t, err)
	assert.Equal(t, "local x = 1", out)
}

func TestFormatConfigPathFlag(t *testing.T) {
	bin := fakeBinary(t, `if [ "$1 $2 $3" != "--config-path stylua.toml -" ]; then
  echo "unexpected args: $@" >&2
  exit 1
fi
cat`)
	r := &Runner{Bin: bin, ConfigPath: "stylua.toml"}
	_, err := r.Format(context.Background(), "x", nil)
	assert.NoError(t, err)
}

func TestFormatStderrRejects(t *testing.T) {
	bin := fakeBinary(t, `cat >/dev/null
echo "partial output"
echo "error: unexpected token" >&2
exit 1`)
	r := &Runner{Bin: bin}
	out, err := r.Format(context.Background(), "local x == 1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error: unexpected token")
	assert.Empty(t, out)
}

func TestFormatStderrRejectsEvenOnCleanExit(t *testing.T) {
	bin := fakeBinary(t, `cat
echo "warning: deprecated option" >&2`)
	r := &Runner{Bin: bin}
	_, err := r.Format(context.Background(), "local x = 1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deprecated option")
}

func TestFormatSpawnFailure(t *testing.T) {
	r := &Runner{Bin: filepath.Join(t.TempDir(), "missing")}
	_, err := r.Format(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestFormatTrimsOutput(t *testing.T) {
	bin := fakeBinary(t, `cat >/dev/null
printf 'local x = 1\n\n\n'`)
	r := &Runner{Bin: bin}
	out, err := r.Format(context.Background(), "local x=1", nil)
	require.NoError(t, err)
	assert.Equal(t, "local x = 1", out)
}

func TestVersion(t *testing.T) {
	bin := fakeBinary(t, `echo "stylua 0.20.0"`)
	r := &Runner{Bin: bin}
	vers, err := r.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.20.0", vers)
}

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"stylua 0.20.0\n", "0.20.0", false},
		{"0.20.0", "0.20.0", false},
		{"stylua v2.3.1", "2.3.1", false},
		{"", "", true},
		{"  \n", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVersionOutput(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
