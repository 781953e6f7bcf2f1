package cmd

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/KaramelBytes/studash/internal/utils"
	"github.com/spf13/cobra"
)

var (
	filSel    selectionFlags
	filCount  bool
	filOutput string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the records matching a selection as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, recs, _, err := selectRecords(cmd.Context(), &filSel)
		if err != nil {
			return err
		}
		if filCount {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records match\n", len(recs), ds.Len())
			return nil
		}
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, ds.Header, recs); err != nil {
			return err
		}
		if filOutput != "" {
			if err := utils.SafeWriteFile(filOutput, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d records to %s\n", len(recs), filOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filSel.bind(filterCmd)
	filterCmd.Flags().BoolVar(&filCount, "count", false, "print only the number of matching records")
	filterCmd.Flags().StringVarP(&filOutput, "output", "o", "", "optional path to write the CSV")
}
