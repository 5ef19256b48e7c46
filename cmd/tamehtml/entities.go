package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamehtml/tamehtml/entity"
)

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities <reference>...",
		Short: "Resolve character references",
		Long: `Resolves each argument the way the scanner would after an '&': named
references (with or without the trailing semicolon) and numeric references
starting with '#'. Shows the replacement, how much of the input matched and
how many characters would be pushed back.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				ref := strings.TrimPrefix(strings.TrimPrefix(arg, "&"), "&")
				if strings.HasPrefix(ref, "#") {
					resolveNumeric(out, ref)
					continue
				}
				resolveNamed(out, ref)
			}
			return nil
		},
	}
	return cmd
}

func resolveNamed(out io.Writer, ref string) {
	n := entity.Lookup(ref)
	if n == nil {
		fmt.Fprintf(out, "&%s\tno match\n", ref)
		return
	}
	rewind := len(ref) - len(n.Fragment())
	semi := ""
	if !n.EndsWithSemicolon() {
		semi = " (missing semicolon)"
	}
	fmt.Fprintf(out, "&%s\t=> %q match=%d rewind=%d%s\n", ref, n.Resolved(), len(n.Fragment()), rewind, semi)
}

func resolveNumeric(out io.Writer, ref string) {
	p := &entity.NumericParser{}
	done := false
	for _, c := range ref[1:] {
		if !p.Parse(c) {
			done = true
			break
		}
	}
	if !done {
		p.Done()
	}
	if p.Match == "" {
		fmt.Fprintf(out, "&%s\tno match\n", ref)
		return
	}
	note := ""
	if p.MissingSemicolon {
		note = " (missing semicolon)"
	}
	if p.BadCodePoint {
		note += " (invalid code point)"
	}
	fmt.Fprintf(out, "&%s\t=> %q match=%d rewind=%d%s\n", ref, p.Match, p.MatchLength, p.RewindCount, note)
}
