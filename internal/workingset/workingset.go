// Package workingset holds the transition rules of a session's smart filter
// set. Every function takes the current set and returns a new slice; inputs
// are never modified.
package workingset

import (
	"fmt"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
)

// ManualScore is the suitability score given to user-added filters
const ManualScore = 75

// ApplyAIBatch replaces every AI filter in working with newAI. Manual filters
// are kept verbatim and first; new AI filters are tagged ai and applied, and
// any whose source variables are already used by a manual filter, or whose
// source set or ID repeats an earlier filter, are skipped.
func ApplyAIBatch(newAI, working []filter.SmartFilter) []filter.SmartFilter {
	out := make([]filter.SmartFilter, 0, len(working)+len(newAI))
	manualVars := make(map[core.VariableCode]bool)
	sourceKeys := make(map[string]bool)
	ids := make(map[core.FilterID]bool)

	for _, f := range working {
		if f.Source == filter.SourceAI {
			continue
		}
		out = append(out, f.Clone())
		for _, code := range f.SourceVars {
			manualVars[code] = true
		}
		sourceKeys[f.SourceKey()] = true
		ids[f.ID] = true
	}

	for _, f := range newAI {
		if usesAny(f, manualVars) || sourceKeys[f.SourceKey()] || ids[f.ID] {
			continue
		}
		nf := f.Clone()
		nf.Source = filter.SourceAI
		nf.IsApplied = true
		out = append(out, nf)
		sourceKeys[nf.SourceKey()] = true
		ids[nf.ID] = true
	}
	return out
}

// AddManualFilter appends a filter over variable. It fails with
// core.ErrDuplicateVariable, leaving working untouched, if any existing filter
// already uses the variable.
func AddManualFilter(variable dataset.Variable, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
	if variable.Code == "" {
		return nil, core.NewInvalidInputError("variable_code", "empty")
	}
	for _, f := range working {
		if f.Uses(variable.Code) {
			return nil, core.NewDuplicateVariableError(variable.Code, f.ID)
		}
	}

	t := filter.TypeFor(&variable)
	nf := filter.SmartFilter{
		ID:               manualID(variable.Code, working),
		Title:            variable.DisplayName(),
		Description:      fmt.Sprintf("Filter respondents by %s", variable.DisplayName()),
		Rationale:        "Added manually.",
		SourceVars:       []core.VariableCode{variable.Code},
		FilterType:       t,
		UI:               filter.BuildUI(t, &variable),
		Options:          filter.OptionsFor(t, &variable),
		SuitabilityScore: ManualScore,
		Source:           filter.SourceManual,
		IsApplied:        true,
	}

	out := cloneAll(working)
	return append(out, nf), nil
}

// RemoveFilter drops the filter with id. Absent ids are not an error.
func RemoveFilter(id core.FilterID, working []filter.SmartFilter) []filter.SmartFilter {
	out := make([]filter.SmartFilter, 0, len(working))
	for _, f := range working {
		if f.ID != id {
			out = append(out, f.Clone())
		}
	}
	return out
}

// SetApplied toggles whether a filter takes part in the export
func SetApplied(id core.FilterID, applied bool, working []filter.SmartFilter) ([]filter.SmartFilter, error) {
	out := cloneAll(working)
	for i := range out {
		if out[i].ID == id {
			out[i].IsApplied = applied
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrFilterNotFound, id)
}

// Applied returns the applied filters in working-set order
func Applied(working []filter.SmartFilter) []filter.SmartFilter {
	out := []filter.SmartFilter{}
	for _, f := range working {
		if f.IsApplied {
			out = append(out, f.Clone())
		}
	}
	return out
}

// AvailableVariables returns the catalog entries no filter uses yet, in
// catalog order. This is the candidate list offered for manual adds.
func AvailableVariables(catalog []dataset.Variable, working []filter.SmartFilter) []dataset.Variable {
	used := make(map[core.VariableCode]bool)
	for _, f := range working {
		for _, code := range f.SourceVars {
			used[code] = true
		}
	}
	out := []dataset.Variable{}
	for _, v := range catalog {
		if !used[v.Code] {
			out = append(out, v)
		}
	}
	return out
}

// manualID derives a deterministic id, suffixed only when a removed and
// re-added filter would otherwise collide with a surviving one.
func manualID(code core.VariableCode, working []filter.SmartFilter) core.FilterID {
	base := core.FilterID("manual_" + string(code))
	taken := make(map[core.FilterID]bool, len(working))
	for _, f := range working {
		taken[f.ID] = true
	}
	id := base
	for n := 2; taken[id]; n++ {
		id = core.FilterID(fmt.Sprintf("%s_%d", base, n))
	}
	return id
}

func usesAny(f filter.SmartFilter, codes map[core.VariableCode]bool) bool {
	for _, c := range f.SourceVars {
		if codes[c] {
			return true
		}
	}
	return false
}

func cloneAll(in []filter.SmartFilter) []filter.SmartFilter {
	out := make([]filter.SmartFilter, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}
