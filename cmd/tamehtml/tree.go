package main

import (
	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"github.com/tamehtml/tamehtml"
	"github.com/tamehtml/tamehtml/sax"
)

func newTreeCmd() *cobra.Command {
	var indent int
	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Parse a document and print it as an indented tree",
		Long: `Runs the document through the balancer, assembles the resulting event
stream into a tree and serializes it. Because the balancer guarantees
well-formed output, the assembly never needs recovery logic of its own.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig)
			if err != nil {
				return err
			}
			in, name, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()
			log.WithField("input", name).Debug("parsing")

			doc := etree.NewDocument()
			if err := tamehtml.New(cfg).Parse(in, &treeBuilder{doc: doc, cur: &doc.Element}); err != nil {
				return err
			}
			doc.Indent(indent)
			_, err = doc.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().IntVar(&indent, "indent", 2, "indentation width")
	return cmd
}

// treeBuilder assembles balanced events into an etree document.
type treeBuilder struct {
	doc *etree.Document
	cur *etree.Element
}

func (t *treeBuilder) HandleEvent(ev *sax.Event) error {
	switch ev.Type {
	case sax.DoctypeDecl:
		dt := "DOCTYPE " + ev.Name
		if ev.PublicID != "" {
			dt += ` PUBLIC "` + ev.PublicID + `"`
		}
		if ev.SystemID != "" {
			dt += ` "` + ev.SystemID + `"`
		}
		t.cur.CreateDirective(dt)
	case sax.StartElement:
		el := t.cur.CreateElement(ev.Name)
		for _, a := range ev.Attrs {
			el.CreateAttr(a.Name, a.Value)
		}
		t.cur = el
	case sax.EmptyElement:
		el := t.cur.CreateElement(ev.Name)
		for _, a := range ev.Attrs {
			el.CreateAttr(a.Name, a.Value)
		}
	case sax.EndElement:
		if p := t.cur.Parent(); p != nil {
			t.cur = p
		}
	case sax.Characters:
		t.cur.CreateText(ev.Text)
	case sax.Comment:
		t.cur.CreateComment(ev.Text)
	case sax.ProcessingInstruction:
		t.cur.CreateProcInst(ev.Target, ev.Data)
	}
	return nil
}
