//go:build wireinject

package di

import (
	"github.com/google/wire"
)

// InitializeApp is an injector function - Wire will generate the implementation
func InitializeApp(path SettingsPath, override SettingsOverride, streams Streams) (*App, error) {
	wire.Build(
		// Configuration
		ProvideConfigManager,
		ProvideSettings,
		ProvideLogger,

		// History
		ProvideHistory,
		ProvideHistoryStore,

		// Event bus
		ProvideEventBus,
		ProvidePublisher,

		// Editor
		ProvideEditor,

		NewApp,
	)
	return nil, nil
}
