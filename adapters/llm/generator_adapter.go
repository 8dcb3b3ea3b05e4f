package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
	"savdash/internal/errors"
	"savdash/internal/workingset"
	"savdash/ports"
)

// Config holds LLM adapter configuration
type Config struct {
	Provider            string        // "openai" (default) or "anthropic"
	Model               string        // e.g., "gpt-4.1-mini"
	APIKey              string        // Provider API key
	BaseURL             string        // Optional override (default: provider endpoint)
	Temperature         float64       // 0.0-1.0, lower = more deterministic
	MaxTokens           int           // Max tokens in response
	Timeout             time.Duration // Request timeout
	FallbackToHeuristic bool          // Fallback to heuristic on error
}

func (c Config) provider() string {
	if p := strings.ToLower(strings.TrimSpace(c.Provider)); p != "" {
		return p
	}
	return ProviderOpenAI
}

// Prompt limits
const (
	DefaultMaxFilters      = 15
	maxValueLabelsInPrompt = 12
)

const systemPrompt = "You are a survey research analyst. You design audience segmentation filters from questionnaire metadata and answer with JSON only."

// GeneratorAdapter implements ports.FilterGenerator using an LLM
type GeneratorAdapter struct {
	config      Config
	llmClient   ports.LLMClient
	fallbackGen ports.FilterGenerator
}

// NewGeneratorAdapter creates a new LLM generator adapter
func NewGeneratorAdapter(config Config, fallbackGen ports.FilterGenerator) (*GeneratorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewGeneratorAdapterWithClient(config, client, fallbackGen), nil
}

// NewGeneratorAdapterWithClient wires an existing client, mainly for tests
func NewGeneratorAdapterWithClient(config Config, client ports.LLMClient, fallbackGen ports.FilterGenerator) *GeneratorAdapter {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &GeneratorAdapter{
		config:      config,
		llmClient:   client,
		fallbackGen: fallbackGen,
	}
}

// PromptData structures the input for LLM
type PromptData struct {
	Dataset    string           `json:"dataset,omitempty"`
	Variables  []variableForLLM `json:"variables"`
	MaxFilters int              `json:"max_filters"`
	Types      []string         `json:"filter_types"`
	Controls   []string         `json:"controls"`
}

type variableForLLM struct {
	Code         string   `json:"code"`
	Label        string   `json:"label,omitempty"`
	Type         string   `json:"type"`
	Measure      string   `json:"measure,omitempty"`
	Cardinality  int      `json:"cardinality"`
	ResponseRate float64  `json:"response_rate"`
	ValueLabels  []string `json:"value_labels,omitempty"`
}

// BuildPrompt creates the LLM prompt from the variable catalog
func (g *GeneratorAdapter) BuildPrompt(req ports.FilterRequest) (string, error) {
	maxFilters := req.MaxFilters
	if maxFilters <= 0 {
		maxFilters = DefaultMaxFilters
	}

	vars := make([]variableForLLM, 0, len(req.Variables))
	for _, v := range req.Variables {
		vl := make([]string, 0, min(len(v.ValueLabels), maxValueLabelsInPrompt))
		for i, l := range v.ValueLabels {
			if i >= maxValueLabelsInPrompt {
				break
			}
			key, _ := dataset.ValueKey(l.Value)
			vl = append(vl, key+"="+l.Label)
		}
		vars = append(vars, variableForLLM{
			Code:         string(v.Code),
			Label:        v.Label,
			Type:         string(v.Type),
			Measure:      string(v.Measure),
			Cardinality:  v.Cardinality,
			ResponseRate: math.Round(v.ResponseRate*100) / 100,
			ValueLabels:  vl,
		})
	}

	promptData := PromptData{
		Dataset:    req.DatasetName,
		Variables:  vars,
		MaxFilters: maxFilters,
		Types: []string{
			string(filter.TypeCategorical), string(filter.TypeOrdinal), string(filter.TypeNumericRange),
			string(filter.TypeMultiSelect), string(filter.TypeDateRange),
		},
		Controls: []string{
			string(filter.ControlCheckboxGroup), string(filter.ControlSelect),
			string(filter.ControlRangeSlider), string(filter.ControlDatePicker),
		},
	}

	jsonData, err := json.MarshalIndent(promptData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt data: %w", err)
	}

	prompt := fmt.Sprintf(`Suggest segmentation filters for a survey dataset.

Variable catalog:
%s

Requirements:
- Suggest up to %d filters, most useful first.
- Prefer demographics (age, gender, region, income, education), then behaviour and attitudes.
- Every sourceVars entry MUST be a code from the catalog. Never invent codes.
- Never use the same variable in two filters.
- Skip free-text variables and variables with very low response rates.
- Each filter MUST be JSON with:
  - id: short snake_case identifier
  - title: short human title
  - description: one sentence
  - rationale: 1-2 sentences on why this segmentation is useful (markdown allowed)
  - sourceVars: array of variable codes (several only for grid questions)
  - filterType: one of filter_types
  - ui: {"control": one of controls}
  - suitabilityScore: integer 1-10

Output ONLY a JSON object of the form {"filters": [...]}, no other text.`,
		string(jsonData),
		maxFilters)

	return prompt, nil
}

// LLMFilter is the raw LLM response structure. Both camelCase and snake_case
// keys are accepted.
type LLMFilter struct {
	ID               string
	Title            string
	Description      string
	Rationale        string
	SourceVars       []string
	FilterType       string
	Control          string
	SuitabilityScore float64
}

func (f *LLMFilter) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              string   `json:"id"`
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		Rationale       string   `json:"rationale"`
		SourceVars      []string `json:"sourceVars"`
		SourceVarsSnake []string `json:"source_vars"`
		FilterType      string   `json:"filterType"`
		FilterTypeSnake string   `json:"filter_type"`
		UI              struct {
			Control string `json:"control"`
		} `json:"ui"`
		Score      *float64 `json:"suitabilityScore"`
		ScoreSnake *float64 `json:"suitability_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = LLMFilter{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Rationale:   raw.Rationale,
		SourceVars:  raw.SourceVars,
		FilterType:  raw.FilterType,
		Control:     raw.UI.Control,
	}
	if len(f.SourceVars) == 0 {
		f.SourceVars = raw.SourceVarsSnake
	}
	if f.FilterType == "" {
		f.FilterType = raw.FilterTypeSnake
	}
	switch {
	case raw.Score != nil:
		f.SuitabilityScore = *raw.Score
	case raw.ScoreSnake != nil:
		f.SuitabilityScore = *raw.ScoreSnake
	}
	return nil
}

// ParseCandidates parses the LLM JSON response. It accepts {"filters": [...]}
// or a bare array, optionally inside a markdown code block.
func (g *GeneratorAdapter) ParseCandidates(jsonResponse string) ([]LLMFilter, error) {
	jsonStr := jsonResponse
	if strings.Contains(jsonStr, "```json") {
		start := strings.Index(jsonStr, "```json")
		end := strings.Index(jsonStr[start+7:], "```")
		if end >= 0 {
			jsonStr = jsonStr[start+7 : start+7+end]
		}
	} else if strings.Contains(jsonStr, "```") {
		start := strings.Index(jsonStr, "```")
		end := strings.Index(jsonStr[start+3:], "```")
		if end >= 0 {
			jsonStr = jsonStr[start+3 : start+3+end]
		}
	}
	jsonStr = strings.TrimSpace(jsonStr)

	if strings.HasPrefix(jsonStr, "[") {
		var candidates []LLMFilter
		if err := json.Unmarshal([]byte(jsonStr), &candidates); err != nil {
			return nil, fmt.Errorf("failed to parse LLM response: %w", err)
		}
		return candidates, nil
	}

	var wrapped struct {
		Filters *[]LLMFilter `json:"filters"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if wrapped.Filters == nil {
		return nil, fmt.Errorf("failed to parse LLM response: missing \"filters\"")
	}
	return *wrapped.Filters, nil
}

// ToSmartFilters converts parsed candidates into untrusted filters for validation
func (g *GeneratorAdapter) ToSmartFilters(candidates []LLMFilter) []filter.SmartFilter {
	out := make([]filter.SmartFilter, 0, len(candidates))
	for _, c := range candidates {
		codes := make([]core.VariableCode, 0, len(c.SourceVars))
		for _, s := range c.SourceVars {
			codes = append(codes, core.VariableCode(s))
		}
		out = append(out, filter.SmartFilter{
			ID:               core.FilterID(c.ID),
			Title:            strings.TrimSpace(c.Title),
			Description:      strings.TrimSpace(c.Description),
			Rationale:        strings.TrimSpace(c.Rationale),
			SourceVars:       codes,
			FilterType:       filter.FilterType(strings.ToLower(strings.TrimSpace(c.FilterType))),
			UI:               filter.UI{Control: filter.Control(strings.ToLower(strings.TrimSpace(c.Control)))},
			SuitabilityScore: int(math.Round(c.SuitabilityScore)),
			Source:           filter.SourceAI,
		})
	}
	return out
}

// GenerateFilters implements ports.FilterGenerator
func (g *GeneratorAdapter) GenerateFilters(ctx context.Context, req ports.FilterRequest) (*ports.FilterGeneration, error) {
	if len(req.Variables) == 0 {
		return nil, errors.InvalidInput("variable catalog is empty", core.NewInvalidInputError("variables", "empty"))
	}

	maxFilters := req.MaxFilters
	if maxFilters <= 0 {
		maxFilters = DefaultMaxFilters
	}

	prompt, err := g.BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	promptHash := core.NewHash([]byte(prompt))

	// GUARDRAIL: Timeout
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	response, err := g.llmClient.ChatCompletionWithUsage(callCtx, g.config.Model, prompt, g.config.MaxTokens)
	if err != nil {
		return g.fallback(ctx, req, "llm_error", err)
	}
	responseHash := core.NewHash([]byte(response.Content))
	if response.Usage != nil {
		zap.L().Info("llm filter generation",
			zap.String("dataset_id", req.DatasetID.String()),
			zap.String("provider", response.Usage.Provider),
			zap.String("model", response.Usage.Model),
			zap.Int("prompt_tokens", response.Usage.PromptTokens),
			zap.Int("completion_tokens", response.Usage.CompletionTokens))
	}

	candidates, err := g.ParseCandidates(response.Content)
	if err != nil {
		return g.fallback(ctx, req, "parse_error", err)
	}

	validated, dropped := workingset.ValidateExternal(g.ToSmartFilters(candidates), req.Variables)
	if len(validated) > maxFilters {
		for i := maxFilters; i < len(validated); i++ {
			dropped = append(dropped, ports.DroppedCandidate{
				CandidateIndex: i,
				Reason:         ports.DropCapExceeded,
				Message:        fmt.Sprintf("filter %s exceeds the limit of %d", validated[i].ID, maxFilters),
			})
		}
		validated = validated[:maxFilters]
	}

	if len(dropped) > 0 {
		zap.L().Warn("llm filter candidates dropped",
			zap.String("dataset_id", req.DatasetID.String()),
			zap.Int("dropped", len(dropped)),
			zap.Int("kept", len(validated)))
	}
	if len(validated) == 0 {
		return nil, errors.NoSuitableFilters(core.ErrNoSuitableFilters)
	}

	return &ports.FilterGeneration{
		Filters: validated,
		Audit: ports.GenerationAudit{
			GeneratorType: ports.GeneratorLLM,
			Model:         g.config.Model,
			Temperature:   g.config.Temperature,
			MaxTokens:     g.config.MaxTokens,
			PromptHash:    promptHash,
			ResponseHash:  responseHash,
			Dropped:       dropped,
			GeneratedAt:   core.Now(),
		},
	}, nil
}

// fallback hands the request to the heuristic generator when configured
func (g *GeneratorAdapter) fallback(ctx context.Context, req ports.FilterRequest, reason string, cause error) (*ports.FilterGeneration, error) {
	if !g.config.FallbackToHeuristic || g.fallbackGen == nil {
		return nil, errors.ExternalServiceError("llm", fmt.Errorf("%w: %v", core.ErrGeneratorFailed, cause))
	}

	zap.L().Warn("llm filter generation failed, using heuristic generator",
		zap.String("dataset_id", req.DatasetID.String()),
		zap.String("reason", reason),
		zap.Error(cause))

	gen, err := g.fallbackGen.GenerateFilters(ctx, req)
	if err != nil {
		return nil, err
	}
	gen.Audit.FallbackReason = fmt.Sprintf("%s: %v", reason, cause)
	return gen, nil
}
