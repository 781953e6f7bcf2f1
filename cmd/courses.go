package cmd

import (
	"strconv"

	"github.com/KaramelBytes/studash/internal/aggregate"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var coursesCounts bool

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the course catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		header := []string{"Code", "Course"}
		var counts *aggregate.CountTable
		if coursesCounts {
			ds, err := loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			counts, err = aggregate.CountBy(ds.Records, dataset.FieldCourse)
			if err != nil {
				return err
			}
			header = append(header, "Students")
		}
		t := tablewriter.NewWriter(cmd.OutOrStdout())
		t.SetHeader(header)
		t.SetAutoFormatHeaders(false)
		for _, e := range cat.Entries() {
			row := []string{strconv.Itoa(e.Code), e.Name}
			if counts != nil {
				row = append(row, strconv.Itoa(counts.Get(strconv.Itoa(e.Code))))
			}
			t.Append(row)
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.Flags().BoolVar(&coursesCounts, "counts", false, "add the number of students per course in the dataset")
}
