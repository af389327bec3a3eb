package install

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylua-nvim/internal/release"
)

func TestForOS(t *testing.T) {
	tests := []struct {
		goos       string
		executable string
		pattern    string
	}{
		{"linux", "stylua", "linux"},
		{"darwin", "stylua", "macos"},
		{"windows", "stylua.exe", "win64"},
	}
	for _, tt := range tests {
		p, err := forOS(tt.goos)
		require.NoError(t, err)
		assert.Equal(t, tt.executable, p.Executable)
		assert.Equal(t, tt.pattern, p.AssetPattern)
	}

	_, err := forOS("plan9")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestMatchAsset(t *testing.T) {
	assets := []release.Asset{
		{Name: "stylua-src.tar.gz"},
		{Name: "stylua-macos.zip"},
		{Name: "stylua-linux.zip"},
		{Name: "stylua-win64.zip"},
	}
	a, err := matchAsset(assets, Platform{Executable: "stylua", AssetPattern: "linux"})
	require.NoError(t, err)
	assert.Equal(t, "stylua-linux.zip", a.Name)

	_, err = matchAsset(assets, Platform{Executable: "stylua", AssetPattern: "freebsd"})
	assert.Error(t, err)
}

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"README.md":  "docs",
		"bin/stylua": "#!binary",
	})
	bin, err := extract(archive, "stylua")
	require.NoError(t, err)
	assert.Equal(t, "#!binary", string(bin))
}

func TestExtractMissingEntry(t *testing.T) {
	archive := buildArchive(t, map[string]string{"README.md": "docs"})
	_, err := extract(archive, "stylua")
	assert.Error(t, err)
}

func TestExtractCorruptArchive(t *testing.T) {
	_, err := extract([]byte("not a zip"), "stylua")
	assert.Error(t, err)
}

func TestInstall(t *testing.T) {
	plat, err := Current()
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Skipf("no stylua asset for %s", runtime.GOOS)
	}
	require.NoError(t, err)

	archive := buildArchive(t, map[string]string{
		plat.Executable: "#!fake stylua",
		"LICENSE":       "MIT",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	rel := &release.Release{
		TagName: "v0.20.0",
		Assets: []release.Asset{
			{Name: fmt.Sprintf("stylua-%s.zip", plat.AssetPattern), DownloadURL: srv.URL},
		},
	}

	dir := t.TempDir()
	ins := New(logrus.NewEntry(logrus.New()))
	path, err := ins.Install(context.Background(), rel, dir)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!fake stylua", string(body))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0o111, "binary should be executable")
	}
}

func TestInstallNoAssetForPlatform(t *testing.T) {
	if _, err := Current(); err != nil {
		t.Skipf("unsupported platform: %v", err)
	}
	rel := &release.Release{
		TagName: "v0.20.0",
		Assets:  []release.Asset{{Name: "stylua-src.tar.gz"}},
	}
	ins := New(logrus.NewEntry(logrus.New()))
	_, err := ins.Install(context.Background(), rel, t.TempDir())
	assert.Error(t, err)
}

func TestInstallHTTPError(t *testing.T) {
	plat, err := Current()
	if err != nil {
		t.Skipf("unsupported platform: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	rel := &release.Release{
		TagName: "v0.20.0",
		Assets: []release.Asset{
			{Name: fmt.Sprintf("stylua-%s.zip", plat.AssetPattern), DownloadURL: srv.URL},
		},
	}
	ins := New(logrus.NewEntry(logrus.New()))
	_, err = ins.Install(context.Background(), rel, t.TempDir())
	assert.Error(t, err)
}
