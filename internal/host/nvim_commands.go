// Package host registers the StyLua formatting commands with Neovim.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"
	"github.com/sirupsen/logrus"

	"stylua-nvim/internal/app"
	"stylua-nvim/internal/config"
	"stylua-nvim/internal/format"
	"stylua-nvim/internal/ignore"
)

// Commands is a state container for Neovim command handlers. It holds
// the active session and delegates resolution and installation to the
// app layer.
type Commands struct {
	app     *app.App
	session *app.Session
	log     *logrus.Entry
}

func NewCommands(log *logrus.Entry) *Commands {
	return &Commands{
		app: app.New(log),
		log: log,
	}
}

// Register registers Neovim command/function handlers.
func Register(p *plugin.Plugin) error {
	commands := NewCommands(logrus.WithField("component", "host"))

	p.Handle("poll", func() (string, error) {
		return "ok", nil
	})

	p.HandleCommand(&plugin.CommandOptions{
		Name:  "StyLuaFormat",
		Range: "%",
	}, commands.StyLuaFormat)

	p.HandleCommand(&plugin.CommandOptions{
		Name: "StyLuaReinstall",
	}, commands.StyLuaReinstall)

	p.HandleFunction(&plugin.FunctionOptions{
		Name: "StyLuaFormatRange",
	}, commands.StyLuaFormatRange)

	p.HandleFunction(&plugin.FunctionOptions{
		Name: "StyLuaCheckIgnore",
	}, commands.StyLuaCheckIgnore)

	p.HandleFunction(&plugin.FunctionOptions{
		Name: "StyLuaConfigChanged",
	}, commands.StyLuaConfigChanged)

	return nil
}

// StyLuaFormat formats the command's line range, which defaults to the
// whole buffer.
func (c *Commands) StyLuaFormat(v *nvim.Nvim, r [2]int) error {
	return c.format(v, r[0], r[1])
}

// StyLuaFormatRange formats the given 1-based inclusive line range.
func (c *Commands) StyLuaFormatRange(v *nvim.Nvim, args []int) error {
	if len(args) != 2 {
		return fmt.Errorf("expected [start_line, end_line], got %d arguments", len(args))
	}
	return c.format(v, args[0], args[1])
}

// StyLuaReinstall forces a fresh download of the desired version.
func (c *Commands) StyLuaReinstall(v *nvim.Nvim) error {
	ui := nvimUI{v}
	s, err := c.app.Reinstall(context.Background(), config.FromNvim(v), ui)
	if err != nil {
		ui.Error("reinstall failed: " + err.Error())
		return nil
	}
	c.session = s
	return nil
}

// StyLuaCheckIgnore reports whether a path is excluded by the
// workspace's .styluaignore.
func (c *Commands) StyLuaCheckIgnore(v *nvim.Nvim, args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("expected one path argument")
	}
	cwd, err := workspaceRoot(v)
	if err != nil {
		return false, err
	}
	return ignore.IsIgnored(cwd, args[0])
}

// StyLuaConfigChanged re-resolves the binary path. The vim side calls
// this from an autocmd whenever a stylua_* global changes.
func (c *Commands) StyLuaConfigChanged(v *nvim.Nvim, args []string) error {
	ui := nvimUI{v}
	s, err := c.app.Reconcile(context.Background(), config.FromNvim(v), ui)
	if err != nil {
		c.session = nil
		ui.Error(err.Error())
		return nil
	}
	c.session = s
	return nil
}

func (c *Commands) format(v *nvim.Nvim, startLine, endLine int) error {
	ui := nvimUI{v}
	ctx := context.Background()

	s, err := c.ensureSession(ctx, v, ui)
	if err != nil {
		ui.Error(err.Error())
		return nil
	}

	buf, err := v.CurrentBuffer()
	if err != nil {
		return err
	}
	name, err := v.BufferName(buf)
	if err != nil {
		return err
	}
	cwd, err := workspaceRoot(v)
	if err != nil {
		return err
	}

	if name != "" {
		ignored, err := ignore.IsIgnored(cwd, name)
		if err != nil {
			ui.Warn("reading " + ignore.FileName + ": " + err.Error())
		}
		if ignored {
			ui.Info("skipped: " + name + " matches " + ignore.FileName)
			return nil
		}
	}

	lines, err := v.BufferLines(buf, 0, -1, true)
	if err != nil {
		return err
	}
	text := string(bytes.Join(lines, []byte("\n")))

	var rng *format.Range
	if startLine > 1 || endLine < len(lines) {
		rng = &format.Range{
			Start: format.ByteOffset(text, startLine-1, 0),
			End:   format.ByteOffset(text, endLine-1, format.EndOfLine),
		}
	}

	out, err := s.Runner(cwd).Format(ctx, text, rng)
	if err != nil {
		c.log.WithError(err).Debug("stylua invocation failed")
		ui.Error("stylua: " + err.Error())
		return nil
	}

	return v.SetBufferLines(buf, 0, -1, true, bytes.Split([]byte(out), []byte("\n")))
}

// ensureSession reconciles lazily on first use; later calls reuse the
// session until config changes or a reinstall replaces it.
func (c *Commands) ensureSession(ctx context.Context, v *nvim.Nvim, ui app.UI) (*app.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	s, err := c.app.Reconcile(ctx, config.FromNvim(v), ui)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

func workspaceRoot(v *nvim.Nvim) (string, error) {
	var cwd string
	if err := v.Eval(`getcwd()`, &cwd); err != nil {
		return "", err
	}
	return cwd, nil
}

// nvimUI surfaces messages without raising errors inside the editor.
type nvimUI struct {
	v *nvim.Nvim
}

func (u nvimUI) Info(msg string) {
	_ = u.v.Command(fmt.Sprintf(`echom "[stylua] %s"`, escapeVim(msg)))
}

func (u nvimUI) Warn(msg string) {
	_ = u.v.Command(fmt.Sprintf(`echohl WarningMsg | echom "[stylua] %s" | echohl None`, escapeVim(msg)))
}

func (u nvimUI) Error(msg string) {
	_ = u.v.WritelnErr("[stylua] " + msg)
}

func (u nvimUI) Confirm(prompt string) bool {
	var answer int
	if err := u.v.Call("confirm", &answer, prompt, "&Yes\n&No", 2); err != nil {
		return false
	}
	return answer == 1
}

func escapeVim(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ").Replace(s)
}
