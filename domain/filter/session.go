package filter

import (
	"savdash/domain/core"
)

// Session is the explicit per-user working-set context. It replaces any
// ambient client-side storage: every reconciliation operation receives and
// returns the filter slice it holds.
type Session struct {
	ID        core.SessionID `json:"id"`
	DatasetID core.DatasetID `json:"dataset_id"`
	Filters   []SmartFilter  `json:"filters"`
	CreatedAt core.Timestamp `json:"created_at"`
	UpdatedAt core.Timestamp `json:"updated_at"`
}

// NewSession starts an empty working set for a dataset
func NewSession(datasetID core.DatasetID) *Session {
	now := core.Now()
	return &Session{
		ID:        core.NewSessionID(),
		DatasetID: datasetID,
		Filters:   []SmartFilter{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
