package excel

// ReaderConfig holds configuration for survey workbook ingestion
type ReaderConfig struct {
	DataSheet        string `json:"data_sheet"`
	VariablesSheet   string `json:"variables_sheet"`
	ValueLabelsSheet string `json:"value_labels_sheet"`
	// MaxChoiceCardinality is the distinct-value count up to which an
	// undeclared column is inferred as single choice.
	MaxChoiceCardinality int `json:"max_choice_cardinality"`
	// MissingSeparator splits the missing_values cell of the Variables sheet.
	MissingSeparator string `json:"missing_separator"`
}

// DefaultReaderConfig returns sensible defaults for workbook processing
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		DataSheet:            "Data",
		VariablesSheet:       "Variables",
		ValueLabelsSheet:     "ValueLabels",
		MaxChoiceCardinality: 20,
		MissingSeparator:     ";",
	}
}
