// Package initcmder provides the init command for initializing a local
// .ssetap directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ssetap/pkg/cliui"
	"github.com/papercomputeco/ssetap/pkg/config"
	"github.com/papercomputeco/ssetap/pkg/dotdir"
)

const remoteConfigTimeout = 10 * time.Second

const initLongDesc string = `Initialize a new .ssetap/ directory in the current working directory.

Creates a local .ssetap/ directory with a config.toml. The local directory
takes precedence over the default ~/.ssetap/ directory, which is useful for
keeping separate parser and sink settings per project.

An existing config.toml is left untouched unless --preset is given.

Presets:
  sse      blank-line delimited records printed to stdout (the defaults)
  crlf     records delimited by "\r\n\r\n"
  kafka    events published to a local kafka broker
  <url>    a config.toml fetched over HTTP

Examples:
  ssetap init
  ssetap init --preset crlf
  ssetap init --preset https://example.com/ssetap/config.toml`

const initShortDesc string = "Initialize a local .ssetap/ directory"

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Preset name ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL of a config.toml")

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)

	// Resolve the preset before touching the filesystem so a bad preset
	// leaves nothing behind.
	var cfg *config.Config
	if c.preset != "" {
		cfg, err = loadPreset(ctx, c.preset)
		if err != nil {
			return err
		}
	}

	existed := false
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		existed = true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .ssetap directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	if cfg == nil {
		if _, err := os.Stat(cfger.GetTarget()); err == nil {
			cliui.Fprintf(c.out, "%s Already initialized: %s\n", cliui.SuccessMark, dir)
			return nil
		}
		cfg = config.NewDefaultConfig()
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	if existed {
		cliui.Fprintf(c.out, "%s Wrote %s\n", cliui.SuccessMark, cfger.GetTarget())
	} else {
		cliui.Fprintf(c.out, "%s Initialized .ssetap directory: %s\n", cliui.SuccessMark, dir)
	}
	return nil
}

func loadPreset(ctx context.Context, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	ctx, cancel := context.WithTimeout(ctx, remoteConfigTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preset, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
