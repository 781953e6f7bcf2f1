package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/studash/internal/dashboard"
	"github.com/KaramelBytes/studash/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repSel    selectionFlags
	repTop    int
	repFormat string
	repOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the full dashboard for a selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		opt := dashboard.DefaultOptions()
		opt.TopCourses = c.TopN
		if cmd.Flags().Changed("top") {
			opt.TopCourses = repTop
		}
		format := c.OutputFormat
		if cmd.Flags().Changed("format") {
			format = repFormat
		}

		d, err := dashboard.Build(ds, repSel.selection(), cat, opt)
		if err != nil {
			return err
		}
		if debug {
			for section, err := range d.Errors {
				fmt.Fprintf(os.Stderr, "[debug] section %s: %v\n", section, err)
			}
		}

		var out []byte
		switch strings.ToLower(format) {
		case "", "markdown", "md":
			out = []byte(d.Markdown())
		case "json":
			out, err = d.JSON()
			if err != nil {
				return err
			}
		case "table":
			var buf bytes.Buffer
			d.RenderTable(&buf)
			out = buf.Bytes()
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|table|json)", format)
		}

		if repOutput != "" {
			if err := utils.SafeWriteFile(repOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", repOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repSel.bind(reportCmd)
	reportCmd.Flags().IntVar(&repTop, "top", 10, "number of courses in the status-by-course section (default from config)")
	reportCmd.Flags().StringVarP(&repFormat, "format", "f", "markdown", "output format: markdown|table|json (default from config)")
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "optional path to write the report")
}
