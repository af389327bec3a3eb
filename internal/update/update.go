// Package update compares an installed StyLua against the desired
// release and decides whether a reinstall should be offered.
package update

import (
	"context"

	"github.com/hashicorp/go-version"

	"stylua-nvim/internal/release"
)

// Status is the outcome of one update check.
type Status struct {
	// Current is the version the installed binary reported.
	Current string
	// Target is the release the desired version resolved to. Nil when
	// the current version already satisfies a constraint range.
	Target *release.Release
	// Outdated is true when Target should be offered for installation.
	Outdated bool
}

// Checker runs update checks against a release source.
type Checker struct {
	Source *release.Source
}

// Run compares current against the desired version token. A desired
// token that parses as a version constraint is checked for satisfaction
// first; otherwise (or when unsatisfied) the token is resolved to a
// release and compared by tag.
func (c *Checker) Run(ctx context.Context, current, desired string) (*Status, error) {
	if desired != "" && desired != "latest" {
		if sat, ok := satisfies(current, desired); ok && sat {
			return &Status{Current: current}, nil
		}
	}
	rel, err := c.Source.Resolve(ctx, desired)
	if err != nil {
		return nil, err
	}
	return &Status{
		Current:  current,
		Target:   rel,
		Outdated: Mismatch(current, rel),
	}, nil
}

// Mismatch reports whether the installed version differs from the
// release tag. Falls back to string comparison when either side does
// not parse as a version.
func Mismatch(current string, rel *release.Release) bool {
	cv, errC := version.NewVersion(current)
	rv, errR := version.NewVersion(rel.Version())
	if errC != nil || errR != nil {
		return current != rel.Version()
	}
	return !rv.Equal(cv)
}

func satisfies(current, spec string) (satisfied, ok bool) {
	cons, err := version.NewConstraint(spec)
	if err != nil {
		return false, false
	}
	cv, err := version.NewVersion(current)
	if err != nil {
		return false, false
	}
	return cons.Check(cv), true
}
