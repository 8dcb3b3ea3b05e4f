package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savdash/domain/core"
	"savdash/domain/dataset"
)

func TestSurveyGenerator_Deterministic(t *testing.T) {
	config := DefaultSurveyConfig()
	config.Respondents = 200

	a := NewSurveyGenerator(config).Generate("a")
	b := NewSurveyGenerator(config).Generate("b")

	require.Equal(t, a.Codes(), b.Codes())
	for _, code := range a.Codes() {
		assert.Equal(t, a.Columns[code], b.Columns[code], "column %s", code)
	}
}

func TestSurveyGenerator_Shape(t *testing.T) {
	config := DefaultSurveyConfig()
	config.Respondents = 300
	ds := NewSurveyGenerator(config).Generate("wave 1")

	assert.Equal(t, 300, ds.RowCount)
	assert.Equal(t, "synthetic", ds.Source)
	for _, v := range ds.Variables {
		col, ok := ds.Column(v.Code)
		require.True(t, ok, v.Code)
		assert.Len(t, col, ds.RowCount, "column %s", v.Code)
		assert.GreaterOrEqual(t, v.ResponseRate, 0.0)
		assert.LessOrEqual(t, v.ResponseRate, 1.0)
	}

	id, _ := ds.Variable("respondent_id")
	assert.Equal(t, 300, id.Cardinality)
	assert.Equal(t, 1.0, id.ResponseRate)

	gender, _ := ds.Variable("gender")
	assert.LessOrEqual(t, gender.Cardinality, 3, "user-missing 99 is not a category")

	income, _ := ds.Variable("income")
	assert.LessOrEqual(t, income.Cardinality, 6, "prefer not to say is not a category")

	comments, _ := ds.Variable("comments")
	assert.Equal(t, dataset.TypeText, comments.Type)
	assert.Less(t, comments.ResponseRate, 0.6)

	for _, code := range []core.VariableCode{"q10_1", "q10_2", "q10_3"} {
		_, ok := ds.Variable(code)
		assert.True(t, ok, code)
	}
}

func TestNewTestKit(t *testing.T) {
	kit, err := NewTestKit()
	require.NoError(t, err)
	assert.Equal(t, 500, kit.Survey.RowCount)
	assert.NotEmpty(t, kit.Survey.ID)
}
