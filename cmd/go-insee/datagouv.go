package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/datagouv"
)

var (
	searchScope    string
	resourceFormat string
)

var datagouvCmd = &cobra.Command{
	Use:   "datagouv",
	Short: "Browse the data.gouv.fr catalogue",
}

var datagouvSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newDatagouv(cfg)
		query := strings.Join(args, " ")
		var (
			found []datagouv.Dataset
			err   error
		)
		switch searchScope {
		case "insee":
			found, err = client.SearchINSEE(cmd.Context(), query)
		case "nantes":
			found, err = client.SearchNantes(cmd.Context(), query)
		case "", "all":
			found, err = client.SearchDatasets(cmd.Context(), query, 1, 20)
		default:
			return fmt.Errorf("unknown scope %q", searchScope)
		}
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tRESOURCES\tORGANIZATION")
		for _, d := range found {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.Title, d.ResourcesCount, d.Organization)
		}
		return tw.Flush()
	},
}

var datagouvShowCmd = &cobra.Command{
	Use:   "show <dataset-id>",
	Short: "Show a dataset and its resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := newDatagouv(cfg).GetDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n\n", detail.Dataset.Title, detail.Dataset.URL)
		printResources(cmd, detail.Resources)
		return nil
	},
}

var datagouvResourcesCmd = &cobra.Command{
	Use:   "resources <query>",
	Short: "List downloadable resources of matching datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := newDatagouv(cfg).SearchResources(cmd.Context(), strings.Join(args, " "), resourceFormat)
		if err != nil {
			return err
		}
		printResources(cmd, found)
		return nil
	},
}

var datagouvFetchCmd = &cobra.Command{
	Use:   "fetch <csv-url>",
	Short: "Download a CSV resource and print a JSON summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newDatagouv(cfg).FetchCSV(cmd.Context(), args[0], csvx.WithTrimValues(true))
		if err != nil {
			return err
		}
		summary := preview(res, 5)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func printResources(cmd *cobra.Command, resources []datagouv.Resource) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tSIZE\tTITLE\tURL")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Format, datagouv.FormatFilesize(r.Filesize), r.ResourceTitle, r.URL)
	}
	_ = tw.Flush()
}

func init() {
	datagouvSearchCmd.Flags().StringVar(&searchScope, "scope", "all", "all, insee or nantes")
	datagouvResourcesCmd.Flags().StringVar(&resourceFormat, "format", "csv", "resource format filter, empty for any")
	datagouvCmd.AddCommand(datagouvSearchCmd, datagouvShowCmd, datagouvResourcesCmd, datagouvFetchCmd)
}
