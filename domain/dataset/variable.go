package dataset

import (
	"savdash/domain/core"
)

// VariableType is the question type of a survey variable
type VariableType string

const (
	TypeSingleChoice VariableType = "single_choice"
	TypeMultiChoice  VariableType = "multi_choice"
	TypeNumeric      VariableType = "numeric"
	TypeText         VariableType = "text"
	TypeDate         VariableType = "date"
	TypeScale        VariableType = "scale"
	TypeUnknown      VariableType = "unknown"
)

// ParseVariableType maps free text to a VariableType, defaulting to unknown
func ParseVariableType(s string) VariableType {
	switch VariableType(s) {
	case TypeSingleChoice, TypeMultiChoice, TypeNumeric, TypeText, TypeDate, TypeScale:
		return VariableType(s)
	}
	return TypeUnknown
}

// Measure is the measurement level declared for a variable
type Measure string

const (
	MeasureNominal Measure = "nominal"
	MeasureOrdinal Measure = "ordinal"
	MeasureScale   Measure = "scale"
	MeasureUnknown Measure = "unknown"
)

// ParseMeasure maps free text to a Measure, defaulting to unknown
func ParseMeasure(s string) Measure {
	switch Measure(s) {
	case MeasureNominal, MeasureOrdinal, MeasureScale:
		return Measure(s)
	}
	return MeasureUnknown
}

// ValueLabel maps a raw code to its human text
type ValueLabel struct {
	Value RawValue `json:"value"`
	Label string   `json:"label"`
}

// MissingPolicy is the declared missing-value policy of a variable
type MissingPolicy struct {
	SystemMissing bool       `json:"system_missing"`
	UserMissing   []RawValue `json:"user_missing,omitempty"`
}

// Variable is a single survey question/column. Constructed at ingestion and
// read-only afterwards.
type Variable struct {
	Code          core.VariableCode `json:"code"`
	Label         string            `json:"label"`
	Type          VariableType      `json:"type"`
	Measure       Measure           `json:"measure"`
	ValueLabels   []ValueLabel      `json:"value_labels,omitempty"`
	Missing       MissingPolicy     `json:"missing"`
	Cardinality   int               `json:"cardinality"`
	ResponseCount int               `json:"response_count"`
	ResponseRate  float64           `json:"response_rate"` // fraction of rows with a valid value, 0..1
}

// LabelFor resolves the value label for raw, if one is declared
func (v *Variable) LabelFor(raw RawValue) (string, bool) {
	key, ok := ValueKey(raw)
	if !ok {
		return "", false
	}
	for _, vl := range v.ValueLabels {
		if k, ok := ValueKey(vl.Value); ok && k == key {
			return vl.Label, true
		}
	}
	return "", false
}

// DisplayName prefers the label and falls back to the code
func (v *Variable) DisplayName() string {
	if v.Label != "" {
		return v.Label
	}
	return string(v.Code)
}
