package kernel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"git.sr.ht/~aondrejcak/wellness-api/store"
)

// OpenStore connects to MongoDB when MONGODB_URI is set and to MySQL through
// gorm otherwise, then hands the store to PrepareStore.
func OpenStore(ctx context.Context, c *Config) (store.Store, error) {
	var (
		st      store.Store
		backend string
		err     error
	)

	if c.MongoURI != "" {
		backend = "mongodb"
		st, err = store.OpenMongo(ctx, c.MongoURI, c.MongoDatabase)
	} else {
		backend = "mysql"
		st, err = store.OpenSQL(c.DatabaseDSN)
	}
	if err != nil {
		return nil, err
	}

	if err = PrepareStore(ctx, st); err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	log.Info().Str("backend", backend).Msg("database connected")
	return st, nil
}

// PrepareStore checks the store answers and makes sure the unique indexes
// exist. The caller owns st and closes it on error.
func PrepareStore(ctx context.Context, st store.Store) error {
	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	if err := st.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("preparing database: %w", err)
	}
	return nil
}
