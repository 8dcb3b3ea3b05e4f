package ui

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"savdash/domain/core"
	"savdash/domain/filter"
)

// renderMarkdown converts short filter texts to HTML. Raw HTML in the source
// is dropped since rationales may come from a language model.
func renderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(src), p, r)))
}

type filterView struct {
	filter.SmartFilter
	DescriptionHTML string `json:"description_html,omitempty"`
	RationaleHTML   string `json:"rationale_html,omitempty"`
}

type sessionView struct {
	ID        core.SessionID `json:"id"`
	DatasetID core.DatasetID `json:"dataset_id"`
	Filters   []filterView   `json:"filters"`
	CreatedAt core.Timestamp `json:"created_at"`
	UpdatedAt core.Timestamp `json:"updated_at"`
}

func newSessionView(s *filter.Session) sessionView {
	view := sessionView{
		ID:        s.ID,
		DatasetID: s.DatasetID,
		Filters:   make([]filterView, 0, len(s.Filters)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, f := range s.Filters {
		view.Filters = append(view.Filters, filterView{
			SmartFilter:     f,
			DescriptionHTML: renderMarkdown(f.Description),
			RationaleHTML:   renderMarkdown(f.Rationale),
		})
	}
	return view
}
