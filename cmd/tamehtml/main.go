// Command tamehtml is an inspection tool for the parser: it dumps event
// streams, renders parsed documents as indented trees, resolves character
// references, and serves a small live inspector.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	log = logrus.New()

	flagConfig  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "tamehtml",
		Short:         "Permissive HTML parser tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML file with feature flags and properties")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newEventsCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newEntitiesCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
