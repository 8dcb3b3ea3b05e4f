package export

import (
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"savdash/domain/dataset"
)

type frequencyRow struct {
	Code           string  `csv:"code"`
	Variable       string  `csv:"variable_label"`
	Value          string  `csv:"value"`
	Label          string  `csv:"label"`
	Count          int     `csv:"count"`
	PercentOfTotal float64 `csv:"percent_of_total"`
	PercentOfValid float64 `csv:"percent_of_valid"`
	IsMissing      bool    `csv:"is_missing"`
	IsOther        bool    `csv:"is_other"`
}

// WriteFrequenciesCSV writes every frequency row of tables as one long CSV
func WriteFrequenciesCSV(w io.Writer, tables []FrequencyTable) error {
	var rows []frequencyRow
	for _, t := range tables {
		for _, item := range t.Statistics.Frequencies {
			value, _ := dataset.ValueKey(item.Value)
			rows = append(rows, frequencyRow{
				Code:           string(t.Variable.Code),
				Variable:       t.Variable.Label,
				Value:          value,
				Label:          item.Label,
				Count:          item.Count,
				PercentOfTotal: item.PercentOfTotal,
				PercentOfValid: item.PercentOfValid,
				IsMissing:      item.IsMissing,
				IsOther:        item.IsOther,
			})
		}
	}
	if len(rows) == 0 {
		rows = []frequencyRow{}
	}

	b, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "export: encode csv")
	}
	if _, err := w.Write(b); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}
