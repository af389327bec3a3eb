// Package app coordinates binary resolution, installation and update
// checks for the formatting commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"stylua-nvim/internal/config"
	"stylua-nvim/internal/format"
	"stylua-nvim/internal/install"
	"stylua-nvim/internal/release"
	"stylua-nvim/internal/update"
)

// ErrBinaryMissing is returned when stylua_path points at a file that
// does not exist. A configured path is never silently replaced by a
// download.
var ErrBinaryMissing = errors.New("configured stylua path does not exist")

// UI delivers non-blocking notifications and prompts to the user.
type UI interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Confirm(prompt string) bool
}

// Session is the resolved state a formatting call runs against. It is
// rebuilt by Reconcile rather than mutated in place.
type Session struct {
	Cfg     config.Config
	BinPath string
}

// Runner returns the invoker for this session, running in dir.
func (s *Session) Runner(dir string) *format.Runner {
	return &format.Runner{
		Bin:        s.BinPath,
		ConfigPath: s.Cfg.ConfigPath,
		Dir:        dir,
	}
}

// App owns the release source and installer shared across sessions.
type App struct {
	source    *release.Source
	installer *install.Installer
	dataDir   string
	log       *logrus.Entry
}

func New(log *logrus.Entry) *App {
	return &App{
		source:    release.NewSource(),
		installer: install.New(log),
		dataDir:   install.DataDir(),
		log:       log,
	}
}

// NewWithDataDir is like New but keeps binaries under dir. Used by the
// install subcommand and tests.
func NewWithDataDir(log *logrus.Entry, dir string) *App {
	a := New(log)
	a.dataDir = dir
	return a
}

// Reconcile resolves the stylua binary for cfg. An explicitly
// configured path wins and must exist; otherwise a previously
// downloaded binary is used, installing one first if needed. The
// update check only applies to managed (downloaded) binaries and is
// never fatal.
func (a *App) Reconcile(ctx context.Context, cfg config.Config, ui UI) (*Session, error) {
	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBinaryMissing, cfg.Path)
		}
		return &Session{Cfg: cfg, BinPath: cfg.Path}, nil
	}
	plat, err := install.Current()
	if err != nil {
		return nil, err
	}
	local := filepath.Join(a.dataDir, plat.Executable)
	if _, err := os.Stat(local); err == nil {
		s := &Session{Cfg: cfg, BinPath: local}
		if cfg.CheckUpdate {
			s = a.checkUpdate(ctx, s, ui)
		}
		return s, nil
	}
	ui.Info("stylua not found, installing " + cfg.DesiredVersion())
	s, err := a.install(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ui.Info("installed stylua at " + s.BinPath)
	return s, nil
}

// Reinstall downloads the desired version regardless of any existing
// binary.
func (a *App) Reinstall(ctx context.Context, cfg config.Config, ui UI) (*Session, error) {
	ui.Info("reinstalling stylua " + cfg.DesiredVersion())
	s, err := a.install(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ui.Info("installed stylua at " + s.BinPath)
	return s, nil
}

func (a *App) install(ctx context.Context, cfg config.Config) (*Session, error) {
	rel, err := a.source.Resolve(ctx, cfg.DesiredVersion())
	if err != nil {
		return nil, err
	}
	bin, err := a.installer.Install(ctx, rel, a.dataDir)
	if err != nil {
		return nil, err
	}
	return &Session{Cfg: cfg, BinPath: bin}, nil
}

// checkUpdate offers a reinstall when the installed binary does not
// match the desired version. Every failure path keeps the existing
// session and only warns.
func (a *App) checkUpdate(ctx context.Context, s *Session, ui UI) *Session {
	current, err := s.Runner("").Version(ctx)
	if err != nil {
		ui.Warn("stylua version check failed: " + err.Error())
		return s
	}
	checker := &update.Checker{Source: a.source}
	st, err := checker.Run(ctx, current, s.Cfg.DesiredVersion())
	if err != nil {
		ui.Warn("stylua update check failed: " + err.Error())
		return s
	}
	if !st.Outdated {
		return s
	}
	prompt := fmt.Sprintf("stylua %s is available (installed: %s). Install it?", st.Target.TagName, current)
	if !ui.Confirm(prompt) {
		return s
	}
	ns, err := a.install(ctx, s.Cfg)
	if err != nil {
		ui.Error("stylua install failed: " + err.Error())
		return s
	}
	ui.Info("installed stylua at " + ns.BinPath)
	return ns
}
