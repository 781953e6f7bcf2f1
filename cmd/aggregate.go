package cmd

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/studash/internal/aggregate"
	"github.com/KaramelBytes/studash/internal/dashboard"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	cntSel selectionFlags
	cntBy  []string
	cntTop int

	meanSel    selectionFlags
	meanBy     string
	meanFields []string
	meanLong   bool

	corrSel    selectionFlags
	corrFields []string
	corrPairs  bool
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count selected records grouped by one or two fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, recs, cat, err := selectRecords(cmd.Context(), &cntSel)
		if err != nil {
			return err
		}
		var tbl *aggregate.CountTable
		switch {
		case cntTop > 0 && len(cntBy) == 2:
			tbl, _, err = aggregate.TopGroups(recs, cntBy[0], cntBy[1], cntTop)
		default:
			tbl, err = aggregate.CountBy(recs, cntBy...)
			if err == nil && cntTop > 0 {
				tbl = &aggregate.CountTable{Fields: tbl.Fields, Rows: aggregate.TopN(tbl, cntTop), Total: tbl.Total}
			}
		}
		if err != nil {
			return err
		}
		if tbl.Len() == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "⚠ No records match the selection")
			return nil
		}
		dashboard.RenderCounts(cmd.OutOrStdout(), tbl, courseLabeler(cat))
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", tbl.Total)
		return nil
	},
}

var meanCmd = &cobra.Command{
	Use:   "mean",
	Short: "Mean of numeric fields per group, with an overall Total row",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, recs, cat, err := selectRecords(cmd.Context(), &meanSel)
		if err != nil {
			return err
		}
		tbl, err := aggregate.MeanBy(recs, meanBy, meanFields)
		if err != nil {
			return err
		}
		if tbl.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "⚠ No records match the selection")
			return nil
		}
		label := courseLabeler(cat)
		for i := range tbl.Rows {
			if !tbl.Rows[i].IsTotal {
				tbl.Rows[i].Group = label(tbl.GroupKey, tbl.Rows[i].Group)
			}
		}
		if meanLong {
			for _, r := range tbl.Long() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.4f\n", r.Group, r.Field, r.Mean)
			}
			return nil
		}
		dashboard.RenderMeans(cmd.OutOrStdout(), tbl)
		return nil
	},
}

var corrCmd = &cobra.Command{
	Use:   "corr",
	Short: "Pearson correlation matrix over numeric fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, recs, _, err := selectRecords(cmd.Context(), &corrSel)
		if err != nil {
			return err
		}
		m, err := aggregate.Correlation(recs, corrFields)
		if err != nil {
			return err
		}
		if corrPairs {
			pairs := m.Pairs()
			sort.SliceStable(pairs, func(i, j int) bool { return abs(pairs[i].R) > abs(pairs[j].R) })
			for _, p := range pairs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s ~ %s: r=%.3f\n", p.A, p.B, p.R)
			}
			return nil
		}
		dashboard.RenderCorrelation(cmd.OutOrStdout(), m)
		fmt.Fprintf(cmd.OutOrStdout(), "Samples: %d\n", m.Samples)
		return nil
	},
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func init() {
	rootCmd.AddCommand(countCmd, meanCmd, corrCmd)

	cntSel.bind(countCmd)
	countCmd.Flags().StringSliceVar(&cntBy, "by", []string{dataset.FieldStatus}, "one or two grouping fields, e.g. Course,Status")
	countCmd.Flags().IntVar(&cntTop, "top", 0, "keep only the N largest groups of the first field (0 = all)")

	meanSel.bind(meanCmd)
	meanCmd.Flags().StringVar(&meanBy, "by", dataset.FieldStatus, "grouping field")
	meanCmd.Flags().StringSliceVar(&meanFields, "fields", []string{dataset.FieldSem1Grade, dataset.FieldSem2Grade}, "numeric fields to average")
	meanCmd.Flags().BoolVar(&meanLong, "long", false, "print one group/field/mean line per cell")

	corrSel.bind(corrCmd)
	corrCmd.Flags().StringSliceVar(&corrFields, "fields", dashboard.DefaultOptions().CorrFields, "numeric fields to correlate")
	corrCmd.Flags().BoolVar(&corrPairs, "pairs", false, "list defined pairs by strength instead of the matrix")
}
