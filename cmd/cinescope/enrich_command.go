package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/enrich"
	"github.com/spf13/cobra"
)

var errNoTMDBKey = errors.New("enrichment needs a TMDB API key: set tmdb.api_key or TMDB_API_KEY")

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var opts enrich.Options

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fill posters, synopses, trailers and cast from TMDB (OMDb as fallback)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return ctx.withModels(cmd.Context(), func(models data.Models) error {
				enricher, err := enrich.FromConfig(cfg, models.Movies, ctx.logger())
				if err != nil {
					return err
				}
				if enricher == nil {
					return errNoTMDBKey
				}

				summary, err := enricher.Run(cmd.Context(), opts)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderEnrichSummary(summary, opts.DryRun))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Refresh every field, not only the empty ones")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show what would change without saving")
	return cmd
}

func renderEnrichSummary(summary enrich.Summary, dryRun bool) string {
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		if o.Status == enrich.StatusSkipped {
			continue
		}

		year := ""
		if o.Year != 0 {
			year = strconv.Itoa(int(o.Year))
		}
		detail := strings.Join(o.Fields, ", ")
		if o.Err != nil {
			detail = o.Err.Error()
		}
		rows = append(rows, []string{o.Title, year, o.Status, detail})
	}

	var b strings.Builder
	if len(rows) > 0 {
		b.WriteString(renderTable([]string{"Title", "Year", "Status", "Fields"}, rows, 1))
		b.WriteString("\n")
	}

	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	fmt.Fprintf(&b, "%s %d, skipped %d, failed %d", verb, summary.Updated, summary.Skipped, summary.Failed)
	return b.String()
}
