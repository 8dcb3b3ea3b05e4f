package excel

// SheetData is one worksheet as trimmed string cells
type SheetData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, possibly shorter than Headers
}

// Workbook is the raw content of a survey export
type Workbook struct {
	Data        SheetData
	Variables   *SheetData // optional metadata sheet
	ValueLabels *SheetData // optional value label sheet
}

// cell returns the trimmed cell for a header, or "" if the row is short
func (s *SheetData) cell(row []string, header string) string {
	for i, h := range s.Headers {
		if equalFold(h, header) {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
	}
	return ""
}
