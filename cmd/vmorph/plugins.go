package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmorph/pkg/plugins"
	"github.com/vango-dev/vmorph/pkg/protocol"
)

func pluginsCmd(opts *globalOptions) *cobra.Command {
	var (
		showHooks bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the registered plugins",
		Long: `List the registered plugins. Plugins in the configured stack are
marked with *.

With --hooks, every hook a plugin declares is shown with the way
composition combines it (thread-node, thread-element, gate or
fan-out).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			list := plugins.Default().List()
			out := cmd.OutOrStdout()

			if asJSON {
				infos := make([]protocol.PluginInfo, 0, len(list))
				for _, info := range list {
					infos = append(infos, protocol.PluginInfo{
						Name:        info.Name,
						Description: info.Description,
						Hooks:       info.HookNames(),
						Needs:       info.Needs,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(protocol.PluginsResponse{Plugins: infos, Default: cfg.Plugins})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, info := range list {
				mark := " "
				if slices.Contains(cfg.Plugins, info.Name) {
					mark = "*"
				}
				needs := ""
				if len(info.Needs) > 0 {
					needs = "needs " + strings.Join(info.Needs, ", ")
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, info.Name, info.Description, needs)
				if showHooks {
					for _, h := range info.Hooks {
						fmt.Fprintf(tw, "    %s\t%s\t\n", h, h.Strategy())
					}
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showHooks, "hooks", false, "Show the hooks each plugin declares")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}
