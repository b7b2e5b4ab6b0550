package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmorph/internal/errors"
	"github.com/vango-dev/vmorph/pkg/plugins"
)

func checkCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate vmorph.json",
		Long: `Validate vmorph.json: syntax, value ranges, durations and the plugin
stack. Every listed plugin must be registered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reg := plugins.Default()
			for _, name := range cfg.Plugins {
				if _, ok := reg.Lookup(name); !ok {
					return errors.New("M030").WithDetail(fmt.Sprintf("vmorph.json lists %q.", name))
				}
			}

			where := cfg.Path()
			if where == "" {
				where = "defaults"
			}
			success(cmd.OutOrStdout(), "%s is valid", where)
			fmt.Fprintf(cmd.OutOrStdout(), "  plugins: %s\n", strings.Join(cfg.Plugins, " -> "))
			return nil
		},
	}
}
