package main

import (
	"fmt"
	"strconv"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with the admin account or demo movies",
	}

	seedCmd.AddCommand(newSeedAdminCommand(ctx))
	seedCmd.AddCommand(newSeedMoviesCommand(ctx))

	return seedCmd
}

func newSeedAdminCommand(ctx *commandContext) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create the admin account unless it already exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			admin := cfg.Admin
			if name != "" {
				admin.Name = name
			}
			if email != "" {
				admin.Email = email
			}
			if password != "" {
				admin.Password = password
			}

			return ctx.withModels(cmd.Context(), func(models data.Models) error {
				user, created, err := seed.New(models, ctx.logger()).Admin(cmd.Context(), admin)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if created {
					fmt.Fprintf(out, "Created admin %s <%s>\n", user.Name, user.Email)
				} else {
					fmt.Fprintf(out, "Admin %s already exists, left unchanged\n", user.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Admin display name (default from admin.name)")
	cmd.Flags().StringVar(&email, "email", "", "Admin email (default from admin.email)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (default from admin.password)")
	return cmd
}

func newSeedMoviesCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Insert the demo catalog, skipping titles already present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withModels(cmd.Context(), func(models data.Models) error {
				result, err := seed.New(models, ctx.logger()).Movies(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Result", "Movies"},
					[][]string{
						{"inserted", strconv.Itoa(len(result.Inserted))},
						{"skipped", strconv.Itoa(len(result.Skipped))},
					},
					1,
				))

				if verbose {
					rows := make([][]string, 0, len(result.Inserted)+len(result.Skipped))
					for _, title := range result.Inserted {
						rows = append(rows, []string{title, "inserted"})
					}
					for _, title := range result.Skipped {
						rows = append(rows, []string{title, "skipped"})
					}
					fmt.Fprintln(out, renderTable([]string{"Title", "Result"}, rows))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every title")
	return cmd
}
