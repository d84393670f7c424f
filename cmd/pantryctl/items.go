package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
)

func newListCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items in the pantry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := opts.resolveScope()
			if err != nil {
				return err
			}
			items, err := env().pantry.List(cmd.Context(), scope)
			if err != nil {
				return fmt.Errorf("list pantry: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}
}

func newAddCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	var quantity, expiration string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item, merging into an existing one with the same name",
		Long: `Add stores an item or, when one with the same name exists, adds to its quantity.

Example:
  pantryctl add eggs --quantity 6 --expiration 2024-05-01
  pantryctl --scope user:7b1c... add milk`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := opts.resolveScope()
			if err != nil {
				return err
			}
			items, err := env().pantry.Add(cmd.Context(), scope, pantry.AddInput{
				Name:       args[0],
				Quantity:   quantity,
				Expiration: expiration,
			})
			if err != nil {
				return fmt.Errorf("add item: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&quantity, "quantity", "1", "units to add (non-numeric values count as 1)")
	cmd.Flags().StringVar(&expiration, "expiration", "", "expiration date (YYYY-MM-DD)")
	return cmd
}

func newRemoveCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Decrement an item by one, deleting it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, id, err := scopeAndID(opts, args[0])
			if err != nil {
				return err
			}
			items, err := env().pantry.Remove(cmd.Context(), scope, id)
			if err != nil {
				return fmt.Errorf("remove item: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}
}

func newEditCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	var name, quantity, expiration string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Overwrite an item's quantity and expiration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, id, err := scopeAndID(opts, args[0])
			if err != nil {
				return err
			}
			items, err := env().pantry.Edit(cmd.Context(), scope, id, pantry.EditInput{
				Name:       name,
				Quantity:   quantity,
				Expiration: expiration,
			})
			if err != nil {
				return fmt.Errorf("edit item: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name (empty keeps the current name)")
	cmd.Flags().StringVar(&quantity, "quantity", "1", "new quantity")
	cmd.Flags().StringVar(&expiration, "expiration", "", "new expiration date (YYYY-MM-DD, empty clears it)")
	return cmd
}

func newDeleteCmd(opts *rootOptions, env func() *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item regardless of quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, id, err := scopeAndID(opts, args[0])
			if err != nil {
				return err
			}
			items, err := env().pantry.Delete(cmd.Context(), scope, id)
			if err != nil {
				return fmt.Errorf("delete item: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, opts.jsonOutput)
		},
	}
}

func scopeAndID(opts *rootOptions, raw string) (pantry.Scope, uuid.UUID, error) {
	scope, err := opts.resolveScope()
	if err != nil {
		return pantry.Scope{}, uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return pantry.Scope{}, uuid.Nil, fmt.Errorf("invalid item id %q", raw)
	}
	return scope, id, nil
}

func printItems(out io.Writer, items []pantry.ItemDTO, asJSON bool) error {
	if asJSON {
		if items == nil {
			items = []pantry.ItemDTO{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "pantry is empty")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tEXPIRES")
	for _, item := range items {
		expires := item.Expiration
		if expires == "" {
			expires = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.ID, item.Name, item.Quantity, expires)
	}
	return w.Flush()
}
