package statistics

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"savdash/domain/dataset"
)

// nonSubstantivePhrases mark value labels whose codes count as missing even
// though the cell holds a value. Matched as case-insensitive substrings.
var nonSubstantivePhrases = []string{
	// English
	"don't know", "dont know", "do not know",
	"refused", "not applicable", "n/a",
	"prefer not to say", "prefer not to answer", "no answer",
	// German
	"weiß nicht", "weiss nicht", "keine angabe", "verweigert", "trifft nicht zu",
	// French
	"ne sait pas", "refus", "sans réponse", "non applicable",
	// Spanish
	"no sabe", "no contesta", "prefiero no decir", "no aplica",
	// Dutch
	"weet niet", "wil niet zeggen", "niet van toepassing",
}

// MissingDetector classifies raw values as missing for a given variable
type MissingDetector struct {
	phrases []string
}

// NewMissingDetector creates a detector with the built-in phrase list plus extra phrases
func NewMissingDetector(extra ...string) *MissingDetector {
	phrases := make([]string, 0, len(nonSubstantivePhrases)+len(extra))
	phrases = append(phrases, nonSubstantivePhrases...)
	for _, p := range extra {
		if p = normalizeLabel(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return &MissingDetector{phrases: phrases}
}

// IsImplicitMissing reports nil, NaN and blank strings
func IsImplicitMissing(v dataset.RawValue) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return strings.TrimSpace(x) == ""
	}
	_, ok := dataset.ValueKey(v)
	return !ok
}

// IsNonSubstantive reports whether a value label denotes a non-answer
func (d *MissingDetector) IsNonSubstantive(label string) bool {
	label = normalizeLabel(label)
	if label == "" {
		return false
	}
	for _, p := range d.phrases {
		if strings.Contains(label, p) {
			return true
		}
	}
	return false
}

// ExplicitSet returns the canonical keys of every value treated as missing for v:
// declared user-missing codes plus codes whose label is non-substantive.
func (d *MissingDetector) ExplicitSet(v *dataset.Variable) map[string]bool {
	set := make(map[string]bool)
	for _, m := range v.Missing.UserMissing {
		if k, ok := dataset.ValueKey(m); ok && k != "" {
			set[k] = true
		}
	}
	for _, vl := range v.ValueLabels {
		if !d.IsNonSubstantive(vl.Label) {
			continue
		}
		if k, ok := dataset.ValueKey(vl.Value); ok && k != "" {
			set[k] = true
		}
	}
	return set
}

// IsMissing classifies a single raw value against a precomputed explicit set
func IsMissing(v dataset.RawValue, explicit map[string]bool) bool {
	if IsImplicitMissing(v) {
		return true
	}
	key, _ := dataset.ValueKey(v)
	return explicit[key]
}

// normalizeLabel composes accents (NFC) so exports that store "é" as e plus a
// combining mark still match, then folds case, quotes and whitespace.
func normalizeLabel(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
