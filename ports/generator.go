package ports

import (
	"context"

	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/domain/filter"
)

// FilterGenerator proposes smart filters for a variable catalog. Implemented by
// the heuristic classifier and by the language-model adapter.
type FilterGenerator interface {
	GenerateFilters(ctx context.Context, req FilterRequest) (*FilterGeneration, error)
}

// FilterRequest specifies a filter generation
type FilterRequest struct {
	DatasetID   core.DatasetID     `json:"dataset_id"`
	DatasetName string             `json:"dataset_name,omitempty"`
	Variables   []dataset.Variable `json:"variables"`
	MaxFilters  int                `json:"max_filters,omitempty"`
}

// DroppedCandidate records why a candidate was rejected (audit trail).
type DroppedCandidate struct {
	CandidateIndex int    `json:"candidate_index"`
	Reason         string `json:"reason"`
	Message        string `json:"message"`
}

// Drop reasons
const (
	DropUnknownVariable = "unknown_variable"
	DropNoVariables     = "no_variables"
	DropDuplicateSource = "duplicate_source"
	DropCapExceeded     = "cap_exceeded"
)

// GenerationAudit is metadata about a generation call (prompt/response hashes, model, drops).
type GenerationAudit struct {
	GeneratorType  string             `json:"generator_type"` // "llm" | "heuristic"
	Model          string             `json:"model,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	PromptHash     core.Hash          `json:"prompt_hash,omitempty"`
	ResponseHash   core.Hash          `json:"response_hash,omitempty"`
	Dropped        []DroppedCandidate `json:"dropped,omitempty"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
	GeneratedAt    core.Timestamp     `json:"generated_at"`
}

// FilterGeneration is the full output of a generation.
// Filters are what the user reviews; Audit is what the system keeps for debugging.
type FilterGeneration struct {
	Filters []filter.SmartFilter `json:"filters"`
	Audit   GenerationAudit      `json:"audit"`
}

// Generator types
const (
	GeneratorHeuristic = "heuristic"
	GeneratorLLM       = "llm"
)
