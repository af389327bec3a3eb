// Package release resolves StyLua releases from the GitHub release index.
package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v30/github"
)

const (
	// Owner and Repo identify the upstream StyLua repository.
	Owner = "JohnnyMorganz"
	Repo  = "StyLua"

	fetchTimeout = 15 * time.Second
)

// ErrNoMatchingRelease is returned when no release tag matches the
// requested version.
var ErrNoMatchingRelease = errors.New("no matching release")

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Release is a tagged StyLua release.
type Release struct {
	TagName string
	HTMLURL string
	Assets  []Asset
}

// Version returns the release tag without its leading "v".
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Source queries the GitHub release index for a repository.
type Source struct {
	client *github.Client
	owner  string
	repo   string
}

// NewSource returns a Source for the upstream StyLua repository. Requests
// honor an HTTPS proxy from the environment.
func NewSource() *Source {
	return NewSourceFor(Owner, Repo)
}

// NewSourceFor returns a Source for an arbitrary repository.
func NewSourceFor(owner, repo string) *Source {
	hc := &http.Client{
		Timeout:   fetchTimeout,
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
	}
	return &Source{
		client: github.NewClient(hc),
		owner:  owner,
		repo:   repo,
	}
}

// SetBaseURL points the underlying client at a different API endpoint.
// Used by tests.
func (s *Source) SetBaseURL(raw string) error {
	u, err := s.client.BaseURL.Parse(raw)
	if err != nil {
		return err
	}
	s.client.BaseURL = u
	return nil
}

// Latest fetches the newest published release.
func (s *Source) Latest(ctx context.Context) (*Release, error) {
	rel, _, err := s.client.Repositories.GetLatestRelease(ctx, s.owner, s.repo)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	return convert(rel), nil
}

// Resolve returns the release for the given version token. The token
// "latest" (or an empty token) resolves through the dedicated latest
// endpoint; anything else is matched as a prefix against the release
// tags, with leading "v" ignored on both sides.
func (s *Source) Resolve(ctx context.Context, vers string) (*Release, error) {
	if vers == "" || vers == "latest" {
		return s.Latest(ctx)
	}
	opts := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := s.client.Repositories.ListReleases(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing releases: %w", err)
		}
		for _, r := range releases {
			if matchTag(r.GetTagName(), vers) {
				return convert(r), nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return nil, fmt.Errorf("%w for version %q", ErrNoMatchingRelease, vers)
}

// matchTag reports whether a release tag satisfies the requested version
// token. "v0.20" matches tags "v0.20.0" and "0.20.0".
func matchTag(tag, vers string) bool {
	return strings.HasPrefix(strings.TrimPrefix(tag, "v"), strings.TrimPrefix(vers, "v"))
}

func convert(r *github.RepositoryRelease) *Release {
	assets := make([]Asset, len(r.Assets))
	for i, a := range r.Assets {
		assets[i] = Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		}
	}
	return &Release{
		TagName: r.GetTagName(),
		HTMLURL: r.GetHTMLURL(),
		Assets:  assets,
	}
}
