// Package format pipes document text through a StyLua subprocess.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Range restricts formatting to a byte-offset span of the document.
type Range struct {
	Start int
	End   int
}

// Runner invokes one StyLua binary.
type Runner struct {
	// Bin is the path of the stylua executable.
	Bin string
	// ConfigPath, when set, is forwarded as --config-path.
	ConfigPath string
	// Dir is the working directory for the subprocess. Empty means the
	// caller's working directory.
	Dir string
}

// Format writes text to stylua's stdin and returns its stdout with
// surrounding whitespace trimmed. Any stderr output fails the call with
// that diagnostic, even if the process exited cleanly.
func (r *Runner) Format(ctx context.Context, text string, rng *Range) (string, error) {
	args := make([]string, 0, 6)
	if r.ConfigPath != "" {
		args = append(args, "--config-path", r.ConfigPath)
	}
	if rng != nil {
		args = append(args,
			"--range-start", strconv.Itoa(rng.Start),
			"--range-end", strconv.Itoa(rng.End),
		)
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, r.Bin, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.New(msg)
		}
		return "", fmt.Errorf("running %s: %w", r.Bin, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", errors.New(msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Version runs the binary with --version and returns the bare version
// token, e.g. "0.20.0" for the output "stylua 0.20.0".
func (r *Runner) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.Bin, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", r.Bin, err)
	}
	return ParseVersionOutput(string(out))
}

// ParseVersionOutput extracts the version token from --version output.
func ParseVersionOutput(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", errors.New("empty version output")
	}
	return strings.TrimPrefix(fields[len(fields)-1], "v"), nil
}
