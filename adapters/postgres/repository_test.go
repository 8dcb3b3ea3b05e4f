package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetRowToDomain(t *testing.T) {
	vars := []dataset.Variable{{Code: "gender", Label: "Gender", Type: dataset.TypeSingleChoice}}
	cols := map[core.VariableCode][]dataset.RawValue{"gender": {1.0, "2", nil}}

	varsJSON, err := json.Marshal(vars)
	require.NoError(t, err)
	colsJSON, err := json.Marshal(cols)
	require.NoError(t, err)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	row := datasetRow{
		ID:        "ds-1",
		Name:      "Brand tracker",
		Source:    "xlsx",
		RowCount:  3,
		Variables: varsJSON,
		Columns:   colsJSON,
		Status:    string(dataset.StatusReady),
		CreatedAt: created,
		UpdatedAt: created,
	}

	ds, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, core.DatasetID("ds-1"), ds.ID)
	assert.Equal(t, dataset.StatusReady, ds.Status)
	require.Len(t, ds.Variables, 1)
	assert.Equal(t, core.VariableCode("gender"), ds.Variables[0].Code)
	assert.Equal(t, []dataset.RawValue{1.0, "2", nil}, ds.Columns["gender"])
}

func TestDatasetRowToDomainRejectsCorruptJSON(t *testing.T) {
	row := datasetRow{ID: "ds-1", Variables: []byte("{not json")}
	_, err := row.toDomain()
	assert.Error(t, err)
}

func TestSessionRowRoundTrip(t *testing.T) {
	filters := []filter.SmartFilter{{ID: "manual_region", Title: "Region", SourceVars: []core.VariableCode{"region"}, Source: filter.SourceManual, IsApplied: true}}
	b, err := marshalFilters(filters)
	require.NoError(t, err)

	empty, err := marshalFilters(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(empty))

	now := time.Now().UTC()
	s, err := sessionRow{ID: "s1", DatasetID: "ds-1", Filters: b, CreatedAt: now, UpdatedAt: now}.toDomain()
	require.NoError(t, err)
	assert.Equal(t, core.SessionID("s1"), s.ID)
	require.Len(t, s.Filters, 1)
	assert.Equal(t, filter.SourceManual, s.Filters[0].Source)
	assert.True(t, s.Filters[0].IsApplied)
}
