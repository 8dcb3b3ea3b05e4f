package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"savdash/domain/dataset"
	"savdash/ports"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateFilters(ctx context.Context, req ports.FilterRequest) (*ports.FilterGeneration, error) {
	args := m.Called(ctx, req)
	gen, _ := args.Get(0).(*ports.FilterGeneration)
	return gen, args.Error(1)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Read(ctx context.Context, path, name string) (*dataset.Dataset, error) {
	args := m.Called(ctx, path, name)
	ds, _ := args.Get(0).(*dataset.Dataset)
	return ds, args.Error(1)
}
