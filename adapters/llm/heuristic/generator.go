package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
	"savdash/ports"
)

// Generation limits
const (
	MinFilters = 4
	MaxFilters = 15

	fallbackMinCardinality  = 2
	fallbackMaxCardinality  = 20
	fallbackMinResponseRate = 0.70
	fallbackBaseScore       = 5
)

// gridPrefix detects multi-item grid questions by a shared code prefix such as
// "Q5_" in Q5_1, Q5_2, Q5_3. Unrelated variables that happen to share a prefix
// are grouped too.
var gridPrefix = regexp.MustCompile(`^[A-Za-z]+\d*_`)

// Generator classifies survey variables into smart filters using ordered
// keyword and structure rules. It is deterministic and needs no network.
type Generator struct{}

// NewGenerator creates a new heuristic filter generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateFilters implements ports.FilterGenerator
func (g *Generator) GenerateFilters(ctx context.Context, req ports.FilterRequest) (*ports.FilterGeneration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filters := g.GenerateHeuristicFilters(req.Variables)
	if req.MaxFilters > 0 && len(filters) > req.MaxFilters {
		filters = filters[:req.MaxFilters]
	}

	zap.L().Debug("heuristic filters generated",
		zap.String("dataset_id", req.DatasetID.String()),
		zap.Int("variables", len(req.Variables)),
		zap.Int("filters", len(filters)))

	return &ports.FilterGeneration{
		Filters: filters,
		Audit: ports.GenerationAudit{
			GeneratorType: ports.GeneratorHeuristic,
			GeneratedAt:   core.Now(),
		},
	}, nil
}

// classification carries the claimed set and emitted filters through the passes
type classification struct {
	variables []dataset.Variable
	claimed   map[core.VariableCode]bool
	filters   []filter.SmartFilter
}

func (c *classification) claim(codes ...core.VariableCode) {
	for _, code := range codes {
		c.claimed[code] = true
	}
}

func (c *classification) emit(f filter.SmartFilter) {
	c.claim(f.SourceVars...)
	c.filters = append(c.filters, f)
}

// GenerateHeuristicFilters runs the rule passes over variables. Rules run in
// declaration order and a variable claimed by one rule is never reconsidered.
// The result is sorted by score (stable) and capped at MaxFilters.
func (g *Generator) GenerateHeuristicFilters(variables []dataset.Variable) []filter.SmartFilter {
	c := &classification{
		variables: variables,
		claimed:   make(map[core.VariableCode]bool, len(variables)),
	}

	for _, rule := range keywordRules {
		g.applyKeywordRule(c, rule)
	}
	g.applyDateRule(c)
	g.applyScaleRule(c)
	g.applyGridRule(c)

	if len(c.filters) < MinFilters {
		g.applyFallback(c)
	}

	sort.SliceStable(c.filters, func(i, j int) bool {
		return c.filters[i].SuitabilityScore > c.filters[j].SuitabilityScore
	})
	if len(c.filters) > MaxFilters {
		c.filters = c.filters[:MaxFilters]
	}
	return c.filters
}

func (g *Generator) applyKeywordRule(c *classification, rule keywordRule) {
	for i := range c.variables {
		v := &c.variables[i]
		if c.claimed[v.Code] || v.Type == dataset.TypeText {
			continue
		}
		numeric := rule.numericRange && v.Type == dataset.TypeNumeric
		if !numeric && (v.Cardinality < minKeywordCardinality || v.Cardinality > maxKeywordCardinality) {
			continue
		}
		kw, ok := matches(v, rule.keywords)
		if !ok {
			continue
		}

		t := rule.filterType
		if numeric {
			t = filter.TypeNumericRange
		}
		f := singleVariableFilter(core.FilterID("heuristic_"+rule.name), v, t, rule.score)
		f.Title = rule.title
		f.Description = rule.description
		f.Rationale = fmt.Sprintf("**%s** rule: `%s` matches the keyword *%s*.",
			rule.category, v.Code, strings.TrimSuffix(kw, "*"))
		c.emit(f)
		return
	}
}

func (g *Generator) applyDateRule(c *classification) {
	for i := range c.variables {
		v := &c.variables[i]
		if c.claimed[v.Code] {
			continue
		}
		isDate := v.Type == dataset.TypeDate
		if !isDate && v.Type != dataset.TypeText {
			_, isDate = matches(v, dateKeywords)
		}
		if !isDate {
			continue
		}
		f := singleVariableFilter("heuristic_date", v, filter.TypeDateRange, dateScore)
		f.Title = v.DisplayName()
		f.Description = "Segment respondents by when they answered"
		f.Rationale = fmt.Sprintf("**Structural** rule: `%s` holds dates.", v.Code)
		c.emit(f)
		return
	}
}

func (g *Generator) applyScaleRule(c *classification) {
	for i := range c.variables {
		v := &c.variables[i]
		if c.claimed[v.Code] || !scaleCandidate(v) || !scaleCardinalities[v.Cardinality] {
			continue
		}
		f := singleVariableFilter(core.FilterID("heuristic_scale_"+string(v.Code)), v, filter.TypeOrdinal, scaleScore)
		f.Title = v.DisplayName()
		f.Description = fmt.Sprintf("Segment respondents by their rating on a %d-point scale", v.Cardinality)
		f.Rationale = fmt.Sprintf("**Structural** rule: `%s` has %d distinct values, typical of a rating scale.", v.Code, v.Cardinality)
		c.emit(f)
	}
}

func scaleCandidate(v *dataset.Variable) bool {
	switch v.Type {
	case dataset.TypeText, dataset.TypeDate, dataset.TypeMultiChoice:
		return false
	}
	return true
}

func (g *Generator) applyGridRule(c *classification) {
	var order []string
	groups := make(map[string][]*dataset.Variable)
	for i := range c.variables {
		v := &c.variables[i]
		if c.claimed[v.Code] || v.Type == dataset.TypeText {
			continue
		}
		prefix := gridPrefix.FindString(string(v.Code))
		if prefix == "" {
			continue
		}
		if _, seen := groups[prefix]; !seen {
			order = append(order, prefix)
		}
		groups[prefix] = append(groups[prefix], v)
	}

	for _, prefix := range order {
		members := groups[prefix]
		if len(members) < minGridMembers || len(members) > maxGridMembers {
			continue
		}
		name := strings.TrimSuffix(prefix, "_")
		codes := make([]core.VariableCode, len(members))
		options := make([]filter.Option, len(members))
		for i, m := range members {
			codes[i] = m.Code
			options[i] = filter.Option{Key: string(m.Code), Label: m.DisplayName()}
		}
		c.emit(filter.SmartFilter{
			ID:               core.FilterID("heuristic_grid_" + name),
			Title:            fmt.Sprintf("%s grid", name),
			Description:      fmt.Sprintf("Segment respondents by their answers to the %d items of %s", len(members), name),
			Rationale:        fmt.Sprintf("**Structural** rule: %d variables share the code prefix `%s`.", len(members), prefix),
			SourceVars:       codes,
			FilterType:       filter.TypeMultiSelect,
			UI:               filter.UI{Control: filter.ControlFor(filter.TypeMultiSelect, len(members))},
			Options:          options,
			SuitabilityScore: gridScore,
			Source:           filter.SourceAI,
		})
	}
}

// applyFallback fills up to MinFilters, first with well-answered single-choice
// variables, then with any remaining variable that has data.
func (g *Generator) applyFallback(c *classification) {
	position := 0
	pass := func(eligible func(v *dataset.Variable) bool, filterType func(v *dataset.Variable) filter.FilterType) {
		var candidates []*dataset.Variable
		for i := range c.variables {
			v := &c.variables[i]
			if !c.claimed[v.Code] && eligible(v) {
				candidates = append(candidates, v)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].ResponseRate > candidates[j].ResponseRate
		})
		for _, v := range candidates {
			if len(c.filters) >= MinFilters {
				return
			}
			score := fallbackBaseScore - position
			if score < 1 {
				score = 1
			}
			position++
			f := singleVariableFilter(core.FilterID("heuristic_fallback_"+string(v.Code)), v, filterType(v), score)
			f.Title = v.DisplayName()
			f.Description = fmt.Sprintf("Segment respondents by %s", v.DisplayName())
			f.Rationale = fmt.Sprintf("**Fallback**: `%s` is answered by %.0f%% of respondents.", v.Code, v.ResponseRate*100)
			c.emit(f)
		}
	}

	pass(func(v *dataset.Variable) bool {
		return v.Type == dataset.TypeSingleChoice &&
			v.Cardinality >= fallbackMinCardinality && v.Cardinality <= fallbackMaxCardinality &&
			v.ResponseRate >= fallbackMinResponseRate
	}, func(*dataset.Variable) filter.FilterType { return filter.TypeCategorical })

	if len(c.filters) < MinFilters {
		pass(func(v *dataset.Variable) bool {
			return v.Type != dataset.TypeText && (v.Cardinality > 0 || v.ResponseCount > 0)
		}, filter.TypeFor)
	}
}

func singleVariableFilter(id core.FilterID, v *dataset.Variable, t filter.FilterType, score int) filter.SmartFilter {
	return filter.SmartFilter{
		ID:               id,
		SourceVars:       []core.VariableCode{v.Code},
		FilterType:       t,
		UI:               filter.BuildUI(t, v),
		Options:          filter.OptionsFor(t, v),
		SuitabilityScore: score,
		Source:           filter.SourceAI,
	}
}
