package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cobra"

	"github.com/tamehtml/tamehtml"
	"github.com/tamehtml/tamehtml/sax"
)

// eventRow is the expression environment for --filter: one row per event.
type eventRow struct {
	Type   string `expr:"type"`
	Name   string `expr:"name"`
	Text   string `expr:"text"`
	Line   int    `expr:"line"`
	Column int    `expr:"column"`
	Synth  bool   `expr:"synth"`
}

func newEventsCmd() *cobra.Command {
	var (
		raw       bool
		dump      bool
		filterSrc string
	)
	cmd := &cobra.Command{
		Use:   "events [file]",
		Short: "Print the event stream for a document",
		Long: `Parses the file (or stdin) and prints one event per line with its
source location. With --raw the tag balancer is bypassed and the scanner's
events are shown unfiltered. --filter takes a boolean expression over the
fields type, name, text, line, column and synth, e.g.

  tamehtml events --filter 'type == "startElement" && name == "a"' page.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			cfg.Augmentations = true
			if raw {
				cfg.BalanceTags = false
			}

			var filter *vm.Program
			if filterSrc != "" {
				filter, err = expr.Compile(filterSrc, expr.Env(eventRow{}), expr.AsBool())
				if err != nil {
					return fmt.Errorf("compile filter: %w", err)
				}
			}

			in, name, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()
			log.WithField("input", name).Debug("parsing")

			out := cmd.OutOrStdout()
			h := sax.HandlerFunc(func(ev *sax.Event) error {
				if filter != nil {
					keep, err := expr.Run(filter, rowFor(ev))
					if err != nil {
						return err
					}
					if !keep.(bool) {
						return nil
					}
				}
				if dump {
					fmt.Fprintln(out, repr.String(ev, repr.Indent("  ")))
					return nil
				}
				fmt.Fprintln(out, formatEvent(ev))
				return nil
			})
			return tamehtml.New(cfg).Parse(in, h)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "bypass the tag balancer")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump events as Go values")
	cmd.Flags().StringVar(&filterSrc, "filter", "", "boolean expression selecting events")
	return cmd
}

func rowFor(ev *sax.Event) eventRow {
	row := eventRow{Type: ev.Type.String(), Name: ev.Name, Text: ev.Text, Synth: ev.Synthesized}
	if ev.Aug != nil {
		row.Line = ev.Aug.Begin.Line
		row.Column = ev.Aug.Begin.Column
	}
	return row
}

func formatEvent(ev *sax.Event) string {
	var b strings.Builder
	if ev.Aug != nil {
		fmt.Fprintf(&b, "%4d:%-3d ", ev.Aug.Begin.Line, ev.Aug.Begin.Column)
	}
	b.WriteString(ev.Type.String())
	switch ev.Type {
	case sax.StartElement, sax.EmptyElement, sax.EndElement:
		b.WriteString(" " + ev.Name)
		for _, a := range ev.Attrs {
			fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
		}
	case sax.Characters, sax.Comment:
		fmt.Fprintf(&b, " %q", ev.Text)
	case sax.ProcessingInstruction:
		fmt.Fprintf(&b, " %s %q", ev.Target, ev.Data)
	case sax.DoctypeDecl:
		fmt.Fprintf(&b, " %s public=%q system=%q", ev.Name, ev.PublicID, ev.SystemID)
	case sax.XMLDecl:
		fmt.Fprintf(&b, " version=%q encoding=%q", ev.Version, ev.Encoding)
	}
	if ev.Synthesized {
		b.WriteString(" (synthesized)")
	}
	return b.String()
}

func openInput(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}
