// Package install downloads a StyLua release asset and unpacks the
// platform executable into a local directory.
package install

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stylua-nvim/internal/release"
)

const downloadTimeout = 2 * time.Minute

// ErrUnsupportedPlatform is returned when the running OS has no known
// StyLua release asset.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform describes how a StyLua release maps onto one operating system.
type Platform struct {
	// Executable is the filename the binary is written out as.
	Executable string
	// AssetPattern is the substring identifying this platform's zip asset.
	AssetPattern string
}

var platforms = map[string]Platform{
	"darwin":  {Executable: "stylua", AssetPattern: "macos"},
	"linux":   {Executable: "stylua", AssetPattern: "linux"},
	"windows": {Executable: "stylua.exe", AssetPattern: "win64"},
}

// Current returns the Platform for the running OS.
func Current() (Platform, error) {
	return forOS(runtime.GOOS)
}

func forOS(goos string) (Platform, error) {
	p, ok := platforms[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w %q", ErrUnsupportedPlatform, goos)
	}
	return p, nil
}

// DataDir returns the directory downloaded binaries are kept in.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "stylua-nvim")
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "stylua-nvim")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stylua-nvim")
	}
	return filepath.Join(home, ".local", "share", "stylua-nvim")
}

// Installer downloads release assets over HTTP.
type Installer struct {
	client *http.Client
	log    *logrus.Entry
}

func New(log *logrus.Entry) *Installer {
	return &Installer{
		client: &http.Client{
			Timeout:   downloadTimeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		log: log,
	}
}

// Install downloads the platform asset of rel, extracts the executable
// and writes it into dir with execute permissions. It returns the path
// of the installed binary.
func (ins *Installer) Install(ctx context.Context, rel *release.Release, dir string) (string, error) {
	plat, err := Current()
	if err != nil {
		return "", err
	}
	asset, err := matchAsset(rel.Assets, plat)
	if err != nil {
		return "", fmt.Errorf("release %s: %w", rel.TagName, err)
	}
	ins.log.WithFields(logrus.Fields{"tag": rel.TagName, "asset": asset.Name}).Info("downloading stylua")

	archive, err := ins.download(ctx, asset.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	bin, err := extract(archive, plat.Executable)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", asset.Name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, plat.Executable)
	if err := os.WriteFile(out, bin, 0o755); err != nil {
		return "", err
	}
	ins.log.WithField("path", out).Info("installed stylua")
	return out, nil
}

func (ins *Installer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := ins.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// matchAsset picks the zip asset whose name carries the platform pattern.
func matchAsset(assets []release.Asset, plat Platform) (release.Asset, error) {
	for _, a := range assets {
		if strings.Contains(a.Name, plat.AssetPattern) && strings.HasSuffix(a.Name, ".zip") {
			return a, nil
		}
	}
	return release.Asset{}, fmt.Errorf("no asset matching %q", plat.AssetPattern)
}

// extract returns the archive entry named executable, ignoring every
// other entry.
func extract(archive []byte, executable string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if path.Base(f.Name) != executable {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive has no %q entry", executable)
}
