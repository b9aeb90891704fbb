// Package ssetapcmder is the root ssetap command.
package ssetapcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/ssetap/cmd/ssetap/config"
	initcmder "github.com/papercomputeco/ssetap/cmd/ssetap/init"
	readcmder "github.com/papercomputeco/ssetap/cmd/ssetap/read"
	versioncmder "github.com/papercomputeco/ssetap/cmd/version"
)

const ssetapLongDesc string = `ssetap taps Server-Sent-Events style streams.

It reads a byte stream from a URL, a file or stdin, reassembles it into
delimiter-separated records, and publishes one event per record.

  ssetap read <url|file|->    Parse a stream and publish its events
  ssetap init                 Create a local .ssetap/ directory
  ssetap config               Manage persistent configuration`

const ssetapShortDesc string = "ssetap - event stream tap"

func NewSsetapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ssetap",
		Short:        ssetapShortDesc,
		Long:         ssetapLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ssetap/ directory location")

	// Add subcommands
	cmd.AddCommand(readcmder.NewReadCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
