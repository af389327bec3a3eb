// Command stylua-nvim is the Neovim remote-plugin host for the StyLua
// formatter. Run without arguments it speaks msgpack-RPC over stdio;
// the install subcommand downloads StyLua without an editor attached.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/neovim/go-client/nvim/plugin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stylua-nvim/internal/app"
	"stylua-nvim/internal/config"
	"stylua-nvim/internal/host"
	"stylua-nvim/internal/install"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(os.Getenv("STYLUA_NVIM_LOG")); err == nil {
		log.SetLevel(lvl)
	}

	// Flag parsing stays off on the root command: nvim invokes the host
	// with go-client's own --manifest/--location flags.
	rootCmd := &cobra.Command{
		Use:                "stylua-nvim",
		Short:              "Neovim host for the StyLua formatter",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("[stylua-nvim] registering handlers")
			plugin.Main(host.Register)
			return nil
		},
	}

	var installVersion, installDir string
	installCmd := &cobra.Command{
		Use:     "install",
		Short:   "Download and install the StyLua binary",
		Example: "stylua-nvim install --version 0.20.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := installDir
			if dir == "" {
				dir = install.DataDir()
			}
			entry := logrus.NewEntry(log)
			a := app.NewWithDataDir(entry, dir)
			cfg := config.Default()
			cfg.ReleaseVersion = installVersion
			_, err := a.Reinstall(context.Background(), cfg, logUI{entry})
			return err
		},
	}
	installCmd.Flags().StringVar(&installVersion, "version", "latest", "release version to install")
	installCmd.Flags().StringVar(&installDir, "dir", "", "directory to install into (defaults to the plugin data dir)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the plugin host version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(installCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// logUI answers prompts for the non-interactive install path.
type logUI struct {
	log *logrus.Entry
}

func (u logUI) Info(msg string)  { u.log.Info(msg) }
func (u logUI) Warn(msg string)  { u.log.Warn(msg) }
func (u logUI) Error(msg string) { u.log.Error(msg) }

// Confirm always reinstalls; the install subcommand was asked for
// explicitly.
func (u logUI) Confirm(string) bool { return true }
