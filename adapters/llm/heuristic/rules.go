package heuristic

import (
	"strings"
	"unicode"

	"savdash/domain/dataset"
	"savdash/domain/filter"
)

// Rule categories
const (
	categoryDemographic = "Demographic"
	categoryBehavioral  = "Behavioral"
)

// Default cardinality bounds for keyword rules
const (
	minKeywordCardinality = 2
	maxKeywordCardinality = 30
)

// keywordRule claims the first unclaimed variable whose code or label matches
// one of its keywords. A keyword ending in '*' matches any word with that
// prefix; otherwise it must match whole words.
type keywordRule struct {
	name        string
	category    string
	title       string
	description string
	score       int
	filterType  filter.FilterType
	keywords    []string
	// numericRange lets numeric variables through regardless of cardinality,
	// rendered as a range filter.
	numericRange bool
}

var keywordRules = []keywordRule{
	// Demographics
	{
		name: "age", category: categoryDemographic, score: 10,
		title: "Age", description: "Segment respondents by age group",
		filterType: filter.TypeCategorical, numericRange: true,
		keywords: []string{"age", "age group", "alter", "altersgruppe", "edad", "âge", "year of birth", "birth year", "yob"},
	},
	{
		name: "gender", category: categoryDemographic, score: 10,
		title: "Gender", description: "Segment respondents by gender",
		filterType: filter.TypeCategorical,
		keywords:   []string{"gender", "sex", "geschlecht", "sexe", "genero", "género"},
	},
	{
		name: "region", category: categoryDemographic, score: 9,
		title: "Region", description: "Segment respondents by where they live",
		filterType: filter.TypeCategorical,
		keywords:   []string{"region*", "state", "province", "county", "country", "city", "district", "location", "bundesland", "area"},
	},
	{
		name: "income", category: categoryDemographic, score: 8,
		title: "Income", description: "Segment respondents by income bracket",
		filterType: filter.TypeCategorical,
		keywords:   []string{"income", "salary", "earning*", "einkommen", "revenu*", "hhi"},
	},
	{
		name: "education", category: categoryDemographic, score: 8,
		title: "Education", description: "Segment respondents by education level",
		filterType: filter.TypeCategorical,
		keywords:   []string{"educat*", "degree", "schooling", "qualification*", "bildung*", "abschluss"},
	},
	{
		name: "employment", category: categoryDemographic, score: 7,
		title: "Employment", description: "Segment respondents by employment status",
		filterType: filter.TypeCategorical,
		keywords:   []string{"employ*", "occupation*", "job", "work status", "working status", "profession*", "beruf*"},
	},
	{
		name: "marital_status", category: categoryDemographic, score: 7,
		title: "Marital status", description: "Segment respondents by marital status",
		filterType: filter.TypeCategorical,
		keywords:   []string{"marital*", "married", "relationship status", "civil status", "familienstand"},
	},
	// Behavioral
	{
		name: "satisfaction", category: categoryBehavioral, score: 9,
		title: "Satisfaction", description: "Segment respondents by satisfaction",
		filterType: filter.TypeOrdinal,
		keywords:   []string{"satisf*", "csat", "nps", "zufrieden*", "likelihood to recommend"},
	},
	{
		name: "frequency", category: categoryBehavioral, score: 8,
		title: "Usage frequency", description: "Segment respondents by how often they use or buy",
		filterType: filter.TypeOrdinal,
		keywords:   []string{"frequen*", "how often", "often", "usage", "häufig*"},
	},
	{
		name: "brand_awareness", category: categoryBehavioral, score: 8,
		title: "Brand awareness", description: "Segment respondents by the brands they know",
		filterType: filter.TypeCategorical,
		keywords:   []string{"brand*", "aware*", "marke*", "bekannt*"},
	},
	{
		name: "purchase_behavior", category: categoryBehavioral, score: 8,
		title: "Purchase behavior", description: "Segment respondents by what and how they buy",
		filterType: filter.TypeCategorical,
		keywords:   []string{"purchas*", "buy*", "bought", "spend*", "shopping", "kauf*"},
	},
	{
		name: "channel_preference", category: categoryBehavioral, score: 7,
		title: "Channel preference", description: "Segment respondents by preferred channel",
		filterType: filter.TypeCategorical,
		keywords:   []string{"channel*", "store*", "online", "shop", "kanal*"},
	},
}

// Structural rule settings
const (
	dateScore  = 7
	scaleScore = 6
	gridScore  = 6

	minGridMembers = 3
	maxGridMembers = 20
)

// scaleCardinalities are the point counts recognised as rating scales
var scaleCardinalities = map[int]bool{5: true, 7: true, 10: true, 11: true}

var dateKeywords = []string{"date", "datum", "timestamp", "interview time", "start time", "end time"}

// matches reports whether the variable's code or label contains a keyword
func matches(v *dataset.Variable, keywords []string) (string, bool) {
	haystack := " " + normalizeText(string(v.Code)) + " " + normalizeText(v.Label) + " "
	for _, kw := range keywords {
		if strings.HasSuffix(kw, "*") {
			if strings.Contains(haystack, " "+normalizeText(strings.TrimSuffix(kw, "*"))) {
				return kw, true
			}
			continue
		}
		if strings.Contains(haystack, " "+normalizeText(kw)+" ") {
			return kw, true
		}
	}
	return "", false
}

// normalizeText lowercases s, splits it into words at separators, case changes
// and letter/digit boundaries, and joins them with single spaces.
func normalizeText(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if i > 0 && boundary(prev, r) {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
		prev = r
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func boundary(prev, r rune) bool {
	switch {
	case unicode.IsLetter(prev) && unicode.IsDigit(r), unicode.IsDigit(prev) && unicode.IsLetter(r):
		return true
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	}
	return false
}
