package aggregate

import "github.com/KaramelBytes/studash/internal/dataset"

// Summary holds the headline metrics of a filtered view.
type Summary struct {
	Students      int     `json:"students"`
	MeanSem1Grade float64 `json:"mean_sem1_grade"`
	MeanSem2Grade float64 `json:"mean_sem2_grade"`
	MeanAge       float64 `json:"mean_age"`
	// Defined is false when there are no students; the means are then 0.
	Defined bool `json:"defined"`
}

// Summarize computes the student count and the three headline means.
func Summarize(records []dataset.Record) (Summary, error) {
	s := Summary{Students: len(records)}
	if len(records) == 0 {
		return s, nil
	}
	var err error
	for _, m := range []struct {
		field string
		dst   *float64
	}{
		{dataset.FieldSem1Grade, &s.MeanSem1Grade},
		{dataset.FieldSem2Grade, &s.MeanSem2Grade},
		{dataset.FieldAge, &s.MeanAge},
	} {
		*m.dst, err = Mean(records, m.field)
		if err != nil {
			return s, err
		}
	}
	s.Defined = true
	return s, nil
}
