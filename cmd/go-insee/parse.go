package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/csvx"
)

var (
	parseDelimiter string
	parseNoHeader  bool
	parseRows      int
)

// parseSummary is ParseResult with the rows truncated for display.
type parseSummary struct {
	csvx.ParseResult
	Preview []csvx.Row `json:"preview"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a CSV file and print a JSON summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		summary, err := summarize(string(data), parseDelimiter, !parseNoHeader, parseRows)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseDelimiter, "delimiter", "auto", "field delimiter: auto, comma or semicolon")
	parseCmd.Flags().BoolVar(&parseNoHeader, "no-header", false, "treat the first line as data")
	parseCmd.Flags().IntVar(&parseRows, "rows", 5, "number of rows to preview")
}

func summarize(text, delimiter string, header bool, rows int) (parseSummary, error) {
	d, err := csvx.ParseDelimiter(delimiter)
	if err != nil {
		return parseSummary{}, err
	}
	return preview(csvx.Parse(text, csvx.WithDelimiter(d), csvx.WithHeader(header)), rows), nil
}

// preview keeps the first n rows of res; a negative n keeps them all.
func preview(res csvx.ParseResult, n int) parseSummary {
	rows := res.Rows
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	res.Rows = nil
	return parseSummary{ParseResult: res, Preview: rows}
}
