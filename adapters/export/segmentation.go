package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"savdash/domain/core"
	"savdash/domain/filter"
	"savdash/internal/errors"
)

// Format selects the rendering of a segmentation definition
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, defaulting to json when empty
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unsupported export format %q", s), core.ErrInvalidInput)
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Rule is one applied filter in an exported segmentation
type Rule struct {
	FilterID        core.FilterID       `json:"filter_id" yaml:"filter_id"`
	Title           string              `json:"title" yaml:"title"`
	Variables       []core.VariableCode `json:"variables" yaml:"variables"`
	Type            filter.FilterType   `json:"type" yaml:"type"`
	Control         filter.Control      `json:"control" yaml:"control"`
	SelectedOptions []string            `json:"selected_options,omitempty" yaml:"selected_options,omitempty"`
	Min             *float64            `json:"min,omitempty" yaml:"min,omitempty"`
	Max             *float64            `json:"max,omitempty" yaml:"max,omitempty"`
	Source          filter.Provenance   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Segmentation is the portable definition of the applied working set
type Segmentation struct {
	DatasetID   core.DatasetID `json:"dataset_id" yaml:"dataset_id"`
	SessionID   core.SessionID `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Rules       []Rule         `json:"rules" yaml:"rules"`
}

// BuildSegmentation collects the applied filters of a session in working-set order
func BuildSegmentation(s *filter.Session, now time.Time) Segmentation {
	seg := Segmentation{
		DatasetID:   s.DatasetID,
		SessionID:   s.ID,
		GeneratedAt: now.UTC(),
		Rules:       []Rule{},
	}
	for _, f := range s.Filters {
		if !f.IsApplied {
			continue
		}
		rule := Rule{
			FilterID:  f.ID,
			Title:     f.Title,
			Variables: append([]core.VariableCode(nil), f.SourceVars...),
			Type:      f.FilterType,
			Control:   f.UI.Control,
			Min:       f.UI.Min,
			Max:       f.UI.Max,
			Source:    f.Source,
		}
		for _, o := range f.Options {
			rule.SelectedOptions = append(rule.SelectedOptions, o.Key)
		}
		seg.Rules = append(seg.Rules, rule)
	}
	return seg
}

// WriteSegmentation renders seg to w in the requested format
func WriteSegmentation(w io.Writer, seg Segmentation, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(seg); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "export: close yaml encoder")
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(seg); err != nil {
			return eris.Wrap(err, "export: encode json")
		}
		return nil
	}
}
