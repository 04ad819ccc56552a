package main

import (
	"fmt"

	"notedev-server/internal/app"
	"notedev-server/internal/domain"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the built-in templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		services, closeStores, err := openServices(ctx, false)
		if err != nil {
			return err
		}
		defer closeStores()

		if err := app.SeedTemplates(ctx, services.Templates); err != nil {
			return err
		}

		templates, err := services.Templates.List(ctx, domain.TemplateFilter{})
		if err != nil {
			return err
		}
		for _, t := range templates {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.ID, t.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
