// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/fairgraph/api/schemas"
	"github.com/xkilldash9x/fairgraph/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

func (m *MockConfig) Engine() config.EngineConfig {
	args := m.Called()
	return args.Get(0).(config.EngineConfig)
}

func (m *MockConfig) Centrality() config.CentralityConfig {
	args := m.Called()
	return args.Get(0).(config.CentralityConfig)
}

func (m *MockConfig) Preprocess() config.PreprocessConfig {
	args := m.Called()
	return args.Get(0).(config.PreprocessConfig)
}

func (m *MockConfig) Summary() config.SummaryConfig {
	args := m.Called()
	return args.Get(0).(config.SummaryConfig)
}

func (m *MockConfig) Output() config.OutputConfig {
	args := m.Called()
	return args.Get(0).(config.OutputConfig)
}

func (m *MockConfig) Metrics() config.MetricsConfig {
	args := m.Called()
	return args.Get(0).(config.MetricsConfig)
}

// --- Setters ---

func (m *MockConfig) SetCentralityTopK(k int)          { m.Called(k) }
func (m *MockConfig) SetOutputFormat(f string)         { m.Called(f) }
func (m *MockConfig) SetEngineWorkerConcurrency(w int) { m.Called(w) }
func (m *MockConfig) SetPreprocessKeyword(k string)    { m.Called(k) }

// -- Store Mock --

// MockStore mocks the schemas.Store interface.
type MockStore struct {
	mock.Mock
}

var _ schemas.Store = (*MockStore)(nil)

// SaveRun provides a mock function for recording a run.
func (m *MockStore) SaveRun(ctx context.Context, run schemas.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// SaveScores provides a mock function for recording scored graphs.
func (m *MockStore) SaveScores(ctx context.Context, runID string, scores []schemas.ScoredGraph) error {
	args := m.Called(ctx, runID, scores)
	return args.Error(0)
}

// SaveSentences provides a mock function for recording sentence graphs.
func (m *MockStore) SaveSentences(ctx context.Context, runID string, sentences []schemas.Sentence) error {
	args := m.Called(ctx, runID, sentences)
	return args.Error(0)
}

// -- Codec Mock --

// MockCodec mocks the schemas.GraphCodec interface.
type MockCodec struct {
	mock.Mock
}

var _ schemas.GraphCodec = (*MockCodec)(nil)

func (m *MockCodec) Decode(block string) (*schemas.Graph, error) {
	args := m.Called(block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.Graph), args.Error(1)
}

func (m *MockCodec) Encode(g *schemas.Graph) (string, error) {
	args := m.Called(g)
	return args.String(0), args.Error(1)
}
