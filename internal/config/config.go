// Package config reads the plugin's settings from Neovim globals.
package config

import "github.com/neovim/go-client/nvim"

// Config is a snapshot of the stylua_* settings.
type Config struct {
	// Path overrides binary resolution entirely.
	Path string
	// ReleaseVersion is the version to install, "latest" by default.
	ReleaseVersion string
	// TargetReleaseVersion takes precedence over ReleaseVersion when set.
	TargetReleaseVersion string
	// CheckUpdate enables the version check on activation.
	CheckUpdate bool
	// ConfigPath is handed to stylua as --config-path.
	ConfigPath string
}

func Default() Config {
	return Config{
		ReleaseVersion: "latest",
		CheckUpdate:    true,
	}
}

// DesiredVersion returns the version token installs and update checks
// should use.
func (c Config) DesiredVersion() string {
	if c.TargetReleaseVersion != "" {
		return c.TargetReleaseVersion
	}
	if c.ReleaseVersion != "" {
		return c.ReleaseVersion
	}
	return "latest"
}

// FromNvim reads g:stylua_* variables, keeping defaults for anything
// unset.
func FromNvim(v *nvim.Nvim) Config {
	c := Default()
	stringVar(v, "stylua_path", &c.Path)
	stringVar(v, "stylua_release_version", &c.ReleaseVersion)
	stringVar(v, "stylua_target_release_version", &c.TargetReleaseVersion)
	boolVar(v, "stylua_check_update", &c.CheckUpdate)
	stringVar(v, "stylua_config_path", &c.ConfigPath)
	return c
}

func stringVar(v *nvim.Nvim, name string, out *string) {
	var s string
	if err := v.Var(name, &s); err == nil && s != "" {
		*out = s
	}
}

// boolVar accepts vim numbers as well as v:true/v:false.
func boolVar(v *nvim.Nvim, name string, out *bool) {
	var raw interface{}
	if err := v.Var(name, &raw); err != nil {
		return
	}
	switch b := raw.(type) {
	case bool:
		*out = b
	case int64:
		*out = b != 0
	case uint64:
		*out = b != 0
	}
}
