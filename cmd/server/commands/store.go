package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"ecoloop/internal/config"
	"ecoloop/internal/db"
	"ecoloop/internal/mongodb"
	"ecoloop/internal/store"
)

// openStore connects the configured backend. When migrate is set the schema
// or indexes are brought up to date first.
func openStore(ctx context.Context, c *config.Config, migrate bool) (store.Store, error) {
	switch c.StoreDriver {
	case config.DriverPostgres:
		gdb, err := db.Open(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := db.Migrate(gdb); err != nil {
				return nil, err
			}
		}
		return db.NewStore(gdb), nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, c.MongoURI)
		if err != nil {
			return nil, err
		}
		st := mongodb.NewStore(client, c.MongoDatabase)
		if migrate {
			if err := st.EnsureIndexes(ctx); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		return st, nil

	case config.DriverMemory:
		log.Warn().Msg("Using the in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
}
