package main

import (
	"context"

	catauthz "github.com/pthm/catauthz"
	"github.com/pthm/catauthz/internal/catalog"
	"github.com/pthm/catauthz/internal/cli"
	"github.com/pthm/catauthz/providers"
)

// buildDispatcher assembles a Registry, catalog Store, and the built-in
// providers from the loaded Config, the way root.go's PersistentPreRunE
// assembles cfg itself.
func buildDispatcher(ctx context.Context) (*catauthz.Dispatcher, *catalog.Store, error) {
	registry := catauthz.NewRegistry()
	if err := registry.Register(catauthz.DefaultActions()...); err != nil {
		return nil, nil, cli.GeneralError("registering actions", err)
	}

	store, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, nil, cli.GeneralError("opening catalog", err)
	}

	configProvider := providers.NewConfig(registry, cfg.Document())

	built := []catauthz.Provider{
		providers.RootUser{Enabled: cfg.RootEnabled},
		providers.DefaultAllow{DefaultDeny: cfg.Settings.DefaultDeny},
		providers.DefaultDenySQL{AllowSQL: cfg.Settings.DefaultAllowSQL},
		configProvider,
		providers.ActorRestrictions{Registry: registry},
	}

	dispatcher := catauthz.NewDispatcher(registry, store, built,
		catauthz.WithImplicitDeny(true),
	)
	return dispatcher, store, nil
}
