package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-cmswidgets/pkg/bundles"
	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/widgets"
)

var (
	resolveUser   string
	resolveValue  string
	resolveBundle string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <model>",
	Short: "Print the relation links and label a user would get for a model",
	Long: `Resolve builds a relation widget for the model, runs the link update
for the chosen demo user and prints the browse and add links. With --value it
also prints the label of the referenced record. With --bundle the views of
that bundle are listed instead of the model's primary one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resolve(cmd, current, model.ModelID(args[0]))
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveUser, "user", "", "demo user to resolve links for")
	resolveCmd.Flags().StringVar(&resolveValue, "value", "", "reference whose label to print")
	resolveCmd.Flags().StringVar(&resolveBundle, "bundle", "", "bundle slug whose views to list")
}

func resolve(cmd *cobra.Command, a *app, id model.ModelID) error {
	if a == nil {
		return errors.New("resolve: application not initialised")
	}
	ctx := cmd.Context()
	user := a.user(resolveUser)

	w := widgets.NewRelationWidget(widgets.ModelLookup(id, nil), widgets.WithStore(a.store))
	w.UpdateLinks(ctx, user, a.resolver)

	bundle, ok, err := resolveViews(a, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "bundle: (none)\n")
	} else {
		fmt.Fprintf(out, "bundle: %s\n", bundle.Slug())
		for _, view := range bundle.Views {
			fmt.Fprintf(out, "view %s: %s\n", view.Name, viewURL(bundle.ViewURL(ctx, view.Name, user), view))
		}
	}
	fmt.Fprintf(out, "api: %s\n", w.APILink())
	fmt.Fprintf(out, "add: %s\n", w.AddLink())

	if resolveValue != "" {
		label, err := w.LabelForValue(ctx, resolveValue)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		fmt.Fprintf(out, "label: %s\n", label)
	}
	return nil
}

// resolveViews picks the bundle whose views resolve lists: the one named by
// --bundle, or the model's primary bundle.
func resolveViews(a *app, id model.ModelID) (bundles.Bundle, bool, error) {
	if resolveBundle == "" {
		bundle, ok := a.registry.ForModel(id)
		return bundle, ok, nil
	}
	bundle, err := a.registry.Lookup(resolveBundle)
	if err != nil {
		return bundles.Bundle{}, false, fmt.Errorf("resolve: %w", err)
	}
	if bundle.Model != id {
		return bundles.Bundle{}, false, fmt.Errorf("resolve: bundle %q serves %s, not %s", resolveBundle, bundle.Model, id)
	}
	return bundle, true, nil
}

func viewURL(url string, view bundles.View) string {
	switch {
	case url != "":
		return url
	case view.Item:
		return "(item view)"
	default:
		return "(denied)"
	}
}
