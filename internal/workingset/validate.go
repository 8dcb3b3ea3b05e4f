package workingset

import (
	"fmt"
	"strings"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
	"savdash/ports"
)

// Score bounds accepted from external generators
const (
	MinExternalScore = 0
	MaxExternalScore = 10
)

// ValidateExternal screens filters produced outside the process against the
// dataset catalog. Filters with no source variables, an unknown source code or
// a source set already covered by an earlier kept filter are dropped and
// reported. Kept filters are normalised: type and control fall back to the
// catalog-derived mapping, options are rebuilt from value labels, scores are
// clamped to [0,10] and ids are made unique.
func ValidateExternal(filters []filter.SmartFilter, catalog []dataset.Variable) ([]filter.SmartFilter, []ports.DroppedCandidate) {
	index := make(map[core.VariableCode]*dataset.Variable, len(catalog))
	for i := range catalog {
		index[catalog[i].Code] = &catalog[i]
	}

	kept := []filter.SmartFilter{}
	var dropped []ports.DroppedCandidate
	sourceKeys := make(map[string]bool)
	ids := make(map[core.FilterID]bool)

	for i, f := range filters {
		codes := dedupeCodes(f.SourceVars)
		if len(codes) == 0 {
			dropped = append(dropped, ports.DroppedCandidate{
				CandidateIndex: i, Reason: ports.DropNoVariables,
				Message: fmt.Sprintf("filter %q has no source variables", f.ID),
			})
			continue
		}

		vars := make([]*dataset.Variable, 0, len(codes))
		var unknown []string
		for _, code := range codes {
			v, ok := index[code]
			if !ok {
				unknown = append(unknown, string(code))
				continue
			}
			vars = append(vars, v)
		}
		if len(unknown) > 0 {
			dropped = append(dropped, ports.DroppedCandidate{
				CandidateIndex: i, Reason: ports.DropUnknownVariable,
				Message: fmt.Sprintf("unknown variable(s): %s", strings.Join(unknown, ", ")),
			})
			continue
		}

		key := filter.SourceKey(codes)
		if sourceKeys[key] {
			dropped = append(dropped, ports.DroppedCandidate{
				CandidateIndex: i, Reason: ports.DropDuplicateSource,
				Message: fmt.Sprintf("source variables %v already covered", codes),
			})
			continue
		}
		sourceKeys[key] = true

		nf := normalize(f, codes, vars)
		nf.ID = uniqueID(nf.ID, codes, ids)
		ids[nf.ID] = true
		kept = append(kept, nf)
	}
	return kept, dropped
}

func normalize(f filter.SmartFilter, codes []core.VariableCode, vars []*dataset.Variable) filter.SmartFilter {
	nf := f.Clone()
	nf.SourceVars = codes
	nf.Source = filter.SourceAI
	nf.IsApplied = false

	first := vars[0]
	multi := len(vars) > 1

	if !nf.FilterType.Valid() {
		if multi {
			nf.FilterType = filter.TypeMultiSelect
		} else {
			nf.FilterType = filter.TypeFor(first)
		}
	}

	if multi {
		nf.Options = make([]filter.Option, len(vars))
		for i, v := range vars {
			nf.Options[i] = filter.Option{Key: string(v.Code), Label: v.DisplayName()}
		}
	} else {
		nf.Options = filter.OptionsFor(nf.FilterType, first)
	}

	cardinality := first.Cardinality
	if multi {
		cardinality = len(vars)
	}
	if !compatible(nf.FilterType, nf.UI.Control) {
		nf.UI.Control = filter.ControlFor(nf.FilterType, cardinality)
	}
	switch {
	case nf.UI.Control != filter.ControlRangeSlider:
		nf.UI.Min, nf.UI.Max = nil, nil
	case nf.UI.Min == nil || nf.UI.Max == nil:
		nf.UI.Min, nf.UI.Max = filter.RangeFor(first)
	}

	if nf.SuitabilityScore < MinExternalScore {
		nf.SuitabilityScore = MinExternalScore
	}
	if nf.SuitabilityScore > MaxExternalScore {
		nf.SuitabilityScore = MaxExternalScore
	}

	if strings.TrimSpace(nf.Title) == "" {
		nf.Title = first.DisplayName()
	}
	return nf
}

// compatible reports whether an externally chosen control can render t
func compatible(t filter.FilterType, c filter.Control) bool {
	switch t {
	case filter.TypeCategorical:
		return c == filter.ControlCheckboxGroup || c == filter.ControlSelect
	case filter.TypeOrdinal:
		return c == filter.ControlRangeSlider || c == filter.ControlCheckboxGroup || c == filter.ControlSelect
	case filter.TypeNumericRange:
		return c == filter.ControlRangeSlider
	case filter.TypeDateRange:
		return c == filter.ControlDatePicker
	case filter.TypeMultiSelect:
		return c == filter.ControlCheckboxGroup || c == filter.ControlSelect
	}
	return false
}

func uniqueID(id core.FilterID, codes []core.VariableCode, taken map[core.FilterID]bool) core.FilterID {
	base := core.FilterID(strings.TrimSpace(string(id)))
	if base == "" {
		parts := make([]string, len(codes))
		for i, c := range codes {
			parts[i] = string(c)
		}
		base = core.FilterID("ai_" + strings.Join(parts, "_"))
	}
	out := base
	for n := 2; taken[out]; n++ {
		out = core.FilterID(fmt.Sprintf("%s_%d", base, n))
	}
	return out
}

func dedupeCodes(in []core.VariableCode) []core.VariableCode {
	seen := make(map[core.VariableCode]bool, len(in))
	out := make([]core.VariableCode, 0, len(in))
	for _, c := range in {
		c = core.VariableCode(strings.TrimSpace(string(c)))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
