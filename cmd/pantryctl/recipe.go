package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecipeCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	var items []string
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Suggest a recipe from the pantry's items",
		Long: `Recipe asks the configured model for a short markdown recipe.

Without --item the distinct item names of the selected pantry are used.

Example:
  pantryctl recipe
  pantryctl recipe --item eggs --item spinach`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := items
			if len(names) == 0 {
				scope, err := opts.resolveScope()
				if err != nil {
					return err
				}
				names, err = env().pantry.Names(cmd.Context(), scope)
				if err != nil {
					return fmt.Errorf("load pantry names: %w", err)
				}
			}
			recipe, err := env().recipes.Suggest(cmd.Context(), names)
			if err != nil {
				return fmt.Errorf("suggest recipe: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), recipe)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&items, "item", nil, "ingredient to use instead of the pantry contents (repeatable)")
	return cmd
}
