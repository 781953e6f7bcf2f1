package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/KaramelBytes/studash/internal/catalog"
	"github.com/KaramelBytes/studash/internal/dataset"
	"github.com/KaramelBytes/studash/internal/filter"
	"github.com/spf13/cobra"
)

// selectionFlags holds the per-command filter flags.
type selectionFlags struct {
	statuses []string
	gender   string
	courses  []string
	where    string
}

func (s *selectionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.statuses, "status", nil, "keep records with this status: Graduate|Dropout|Enrolled (repeatable)")
	cmd.Flags().StringVar(&s.gender, "gender", filter.GenderAll, "all|male|female")
	cmd.Flags().StringArrayVar(&s.courses, "course", nil, "keep records of this course name or code (repeatable)")
	cmd.Flags().StringVar(&s.where, "where", "", `extra expression over record fields, e.g. 'Debtor == true'`)
}

func (s *selectionFlags) selection() filter.Selection {
	return filter.Selection{
		Statuses: s.statuses,
		Gender:   s.gender,
		Courses:  s.courses,
		Where:    s.where,
	}
}

// selectRecords loads the dataset and catalog and applies the selection.
func selectRecords(ctx context.Context, s *selectionFlags) (*dataset.Dataset, []dataset.Record, *catalog.Catalog, error) {
	ds, err := loadDataset(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := loadCatalog()
	if err != nil {
		return nil, nil, nil, err
	}
	recs, err := filter.Apply(ds.Records, s.selection(), cat)
	if err != nil {
		return nil, nil, nil, err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] selection kept %d of %d records\n", len(recs), ds.Len())
	}
	return ds, recs, cat, nil
}

// courseLabeler renders course codes through the catalog and leaves other
// fields untouched.
func courseLabeler(cat *catalog.Catalog) func(field, v string) string {
	return func(field, v string) string {
		if !strings.EqualFold(field, dataset.FieldCourse) {
			return v
		}
		code, err := strconv.Atoi(v)
		if err != nil {
			return v
		}
		return cat.Label(code)
	}
}
