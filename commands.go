package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-laravel/app/shapes"
	"github.com/km-arc/go-laravel/framework/app"
	"github.com/km-arc/go-laravel/framework/container"
	"github.com/km-arc/go-laravel/framework/multibind"
)

func newRootCommand() *cobra.Command {
	var envFiles []string
	root := &cobra.Command{
		Use:           "go-laravel",
		Short:         "Laravel-style container with ordered list multibindings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	boot := func() (*app.Application, error) {
		a, err := app.New(envFiles...)
		if err != nil {
			return nil, err
		}
		a.Register(&shapes.ServiceProvider{})
		if err := a.Boot(); err != nil {
			return nil, err
		}
		return a, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the HTTP API until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := boot()
				if err != nil {
					return err
				}
				return a.Run(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "order",
			Short: "Print the resolution order of every ordered list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := boot()
				if err != nil {
					return err
				}
				lists, err := a.ListBindings()
				if err != nil {
					return err
				}
				printOrder(cmd, lists)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Materialize the demo shape list and print it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := boot()
				if err != nil {
					return err
				}
				names, err := shapes.Names(cmd.Context(), a.Container)
				if err != nil {
					return err
				}
				for i, n := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, n)
				}
				return nil
			},
		},
	)
	return root
}

func printOrder(cmd *cobra.Command, lists []container.ListDescription) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, l := range lists {
		fmt.Fprintf(w, "%s\n", l.ListKey)
		fmt.Fprintln(w, "POS\tPRIORITY\tTYPE\tSOURCE")
		for _, e := range l.Order {
			priority := "-"
			if e.Priority != multibind.Unordered {
				priority = strconv.Itoa(e.Priority)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Position, priority, e.Type, e.Source)
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()
}
