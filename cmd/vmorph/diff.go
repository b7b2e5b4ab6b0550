package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmorph/internal/errors"
	"github.com/vango-dev/vmorph/pkg/protocol"
)

func diffCmd(opts *globalOptions) *cobra.Command {
	var (
		plugins      []string
		childrenOnly bool
		keyAttribute string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "diff PREV NEXT",
		Short: "Reconcile two JSON trees and print the patches",
		Long: `Reconcile two JSON encoded trees with the configured plugins and
print the resulting patches.

Trees use the wire form of the HTTP API:

  {"tag": "ul", "children": [{"tag": "li", "children": [{"text": "a"}]}]}

Patches that plugins schedule after the pass, such as transition
classes, are printed with their offset.

Examples:
  vmorph diff prev.json next.json
  vmorph diff prev.json next.json --plugins transition
  vmorph diff prev.json next.json --key-attribute data-id --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return errors.New("M061").WithDetail("--format must be text or json, got " + format)
			}

			prev, err := readTree(args[0])
			if err != nil {
				return err
			}
			next, err := readTree(args[1])
			if err != nil {
				return err
			}

			req := &protocol.ReconcileRequest{Prev: prev, Next: next}
			if cmd.Flags().Changed("plugins") {
				req.Plugins = append([]string{}, plugins...)
			}
			if cmd.Flags().Changed("children-only") || cmd.Flags().Changed("key-attribute") {
				req.Base = &protocol.BaseOptions{
					ChildrenOnly: cfg.Base.ChildrenOnly,
					KeyAttribute: cfg.Base.KeyAttribute,
				}
				if cmd.Flags().Changed("children-only") {
					req.Base.ChildrenOnly = childrenOnly
				}
				if cmd.Flags().Changed("key-attribute") {
					req.Base.KeyAttribute = keyAttribute
				}
			}

			srv := newServer(cfg, newLogger(cmd.ErrOrStderr(), cfg))
			resp, err := srv.Reconcile(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printPatches(out, resp)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&plugins, "plugins", "p", nil, "Plugins to compose, in order (default from vmorph.json)")
	cmd.Flags().BoolVar(&childrenOnly, "children-only", false, "Reconcile only the children of the root")
	cmd.Flags().StringVarP(&keyAttribute, "key-attribute", "k", "", "Attribute whose value keys child nodes")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")

	return cmd
}

// readTree decodes a JSON tree file. "-" reads stdin.
func readTree(path string) (*protocol.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.New("M060").Wrap(err)
	}
	var n protocol.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.New("M060").Wrap(fmt.Errorf("%s: %w", path, err))
	}
	return &n, nil
}

func printPatches(w io.Writer, resp *protocol.ReconcileResponse) {
	if len(resp.Patches) == 0 && len(resp.Deferred) == 0 {
		fmt.Fprintln(w, "no changes")
		return
	}
	for _, p := range resp.Patches {
		fmt.Fprintf(w, "%s\n", describe(p))
	}
	for _, step := range resp.Deferred {
		for _, p := range step.Patches {
			fmt.Fprintf(w, "+%dms %s\n", step.AfterMs, describe(p))
		}
	}
}

// describe renders one patch on a line.
func describe(p protocol.Patch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s", p.Op)
	switch p.Op {
	case "InsertNode":
		fmt.Fprintf(&b, " parent=%s index=%d %s", p.Parent, p.Index, summary(p.Node))
	case "ReplaceNode":
		fmt.Fprintf(&b, " %s -> %s", p.HID, summary(p.Node))
	case "SetAttr":
		fmt.Fprintf(&b, " %s %s=%q", p.HID, p.Key, p.Value)
	case "RemoveAttr", "AddClass", "RemoveClass":
		fmt.Fprintf(&b, " %s %s", p.HID, p.Key)
	case "SetText":
		fmt.Fprintf(&b, " %s %q", p.HID, p.Value)
	case "MoveNode":
		fmt.Fprintf(&b, " %s index=%d", p.HID, p.Index)
	default:
		fmt.Fprintf(&b, " %s", p.HID)
	}
	return strings.TrimRight(b.String(), " ")
}

func summary(n *protocol.Node) string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Tag != "":
		if n.HID != "" {
			return "<" + n.Tag + " " + n.HID + ">"
		}
		return "<" + n.Tag + ">"
	default:
		return fmt.Sprintf("%q", n.Text)
	}
}
