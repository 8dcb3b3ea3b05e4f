package testkit

import (
	"context"

	"savdash/adapters/memory"
	"savdash/domain/dataset"
)

// TestKit bundles in-memory repositories seeded with a synthetic survey
type TestKit struct {
	Datasets *memory.DatasetRepository
	Sessions *memory.SessionRepository
	Survey   *dataset.Dataset
}

// NewTestKit stores a default synthetic survey in fresh in-memory repositories
func NewTestKit() (*TestKit, error) {
	return NewTestKitWithConfig(DefaultSurveyConfig())
}

// NewTestKitWithConfig is NewTestKit with a custom generator configuration
func NewTestKitWithConfig(config SurveyGeneratorConfig) (*TestKit, error) {
	kit := &TestKit{
		Datasets: memory.NewDatasetRepository(),
		Sessions: memory.NewSessionRepository(),
		Survey:   NewSurveyGenerator(config).Generate("Synthetic brand tracker"),
	}
	if err := kit.Datasets.Save(context.Background(), kit.Survey); err != nil {
		return nil, err
	}
	return kit, nil
}
