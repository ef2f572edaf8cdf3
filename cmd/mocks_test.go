package cmd

import (
	"testing"

	"github.com/trly/binary-driver/internal/config"
	"github.com/trly/binary-driver/internal/execx"
	"github.com/trly/binary-driver/internal/log"
	"github.com/trly/binary-driver/internal/testutil"
)

// MockFinder resolves names from a fixed table.
type MockFinder map[string]string

// Find implements execx.Finder.
func (m MockFinder) Find(name string) (string, bool) {
	p, ok := m[name]
	return p, ok
}

// AppBuilder provides a fluent interface for building test Apps.
type AppBuilder struct {
	logger log.Logger
	config *config.Settings
	finder execx.Finder
}

// NewAppBuilder creates a new AppBuilder with sensible defaults.
func NewAppBuilder(t *testing.T) *AppBuilder {
	return &AppBuilder{
		logger: testutil.NewTestLogger(t),
		config: &config.Settings{
			OutPrefix: config.DefaultOutPrefix,
			ErrPrefix: config.DefaultErrPrefix,
		},
		finder: MockFinder{},
	}
}

func (b *AppBuilder) WithConfig(c *config.Settings) *AppBuilder {
	b.config = c
	return b
}

func (b *AppBuilder) WithBinaries(binaries ...string) *AppBuilder {
	b.config.Binaries = binaries
	return b
}

func (b *AppBuilder) WithBypassErrors(bypass bool) *AppBuilder {
	b.config.BypassErrors = bypass
	return b
}

func (b *AppBuilder) WithFinder(f execx.Finder) *AppBuilder {
	b.finder = f
	return b
}

func (b *AppBuilder) WithLogger(l log.Logger) *AppBuilder {
	b.logger = l
	return b
}

func (b *AppBuilder) Build(t *testing.T) *App {
	provider := testutil.NewMockConfig(t)
	provider.SetConfig(b.config)
	return &App{
		Logger:         b.logger,
		Config:         b.config,
		ConfigProvider: provider,
		Finder:         b.finder,
	}
}
