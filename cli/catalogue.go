package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/catalogue"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every catalogue entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalogue()
			if err != nil {
				return err
			}
			cat.Resolve(a.store.Locate)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tENABLED\tNAME\tTYPE\tPATH")
			printPartition(w, "asset", cat.Assets)
			printPartition(w, "component", cat.Components)
			return w.Flush()
		},
	}
}

func printPartition(w *tabwriter.Writer, kind string, p catalogue.Partition) {
	for _, entry := range p {
		if entry.Null() {
			fmt.Fprintf(w, "%s\t%v\t-\t-\tmissing\n", kind, entry.Enabled)
			continue
		}
		ref := entry.Reference
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n", kind, entry.Enabled, ref.Name, ref.Type, ref.Path)
	}
}

func newToggleCommand(a *app, enabled bool) *cobra.Command {
	use, verb := "disable", "Disabled"
	if enabled {
		use, verb = "enable", "Enabled"
	}
	return &cobra.Command{
		Use:   use + " <type or name>",
		Short: fmt.Sprintf("%s the singletons matching a type, short type or asset name", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalogue()
			if err != nil {
				return err
			}
			matched, changed := cat.SetEnabled(args[0], enabled)
			if matched == 0 {
				return errors.WithHint(errors.Newf("no catalogue entry matches %q", args[0]),
					"run `autosingleton list` to see the catalogue")
			}
			if _, err := cat.SaveIfDirty(a.fs, a.cataloguePath()); err != nil {
				return err
			}
			a.logger.Debug("Toggled singletons", zap.String("selector", args[0]), zap.Bool("enabled", enabled))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d matching entries.\n", verb, changed, matched)
			return nil
		},
	}
}

func newVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the catalogue for entries the runtime would reject",
		Long: `verify reports what would make the runtime registry fail or warn: duplicate
types, missing assets and, when a type index is compiled in, unknown types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalogue()
			if err != nil {
				return err
			}
			problems := a.verify(cat)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p)
			}
			if len(problems) > 0 {
				return errors.Newf("%s has %d problems", catalogue.AssetName, len(problems))
			}
			fmt.Fprintf(out, "%s is consistent.\n", catalogue.AssetName)
			return nil
		},
	}
}

func (a *app) verify(cat *catalogue.Catalogue) []string {
	var problems []string

	nulled, moved := cat.Resolve(a.store.Locate)
	if nulled > 0 {
		problems = append(problems, fmt.Sprintf("%d entries reference missing assets", nulled))
	}
	if moved > 0 {
		problems = append(problems, fmt.Sprintf("%d entries point to moved assets", moved))
	}

	all := append(append(catalogue.Partition{}, cat.Assets...), cat.Components...)
	for _, typeName := range all.Duplicates() {
		problems = append(problems, fmt.Sprintf("type %s has more than one entry", typeName))
	}

	if a.index != nil {
		for _, entry := range all {
			if entry.Null() {
				continue
			}
			if _, ok := a.index.Lookup(entry.Reference.Type); !ok {
				problems = append(problems, fmt.Sprintf("type %s of %s is not registered", entry.Reference.Type, entry.Reference.Path))
			}
		}
	}
	return problems
}
