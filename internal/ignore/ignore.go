// Package ignore decides whether a file is excluded from formatting via
// a workspace-level .styluaignore file.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the conventional ignore file at the workspace root.
const FileName = ".styluaignore"

// IsIgnored reports whether path is excluded by the workspace's ignore
// file. A missing ignore file means nothing is ignored. Read errors are
// returned alongside false so callers can warn and fail open.
func IsIgnored(root, path string) (bool, error) {
	ignoreFile := filepath.Join(root, FileName)
	if _, err := os.Stat(ignoreFile); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	matcher, err := gitignore.CompileIgnoreFile(ignoreFile)
	if err != nil {
		return false, err
	}
	return matcher.MatchesPath(relativize(root, path)), nil
}

// relativize rewrites path relative to root when it lives inside it;
// paths outside the workspace are matched as given.
func relativize(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
