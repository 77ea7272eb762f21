package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/config"
)

// Open returns the location store selected by cfg.Store.Driver. The returned
// close function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (LocationRepository, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := NewMongoClient(ctx, cfg.MongoURI())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		coll := client.Database(cfg.Mongo.Database).Collection(LocationsCollection)
		return NewMongoLocationRepository(coll), client.Disconnect, nil

	case config.DriverPostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Postgres.Name).Msg("connected to postgres")
		return NewPostgresLocationRepository(db), func(context.Context) error { return db.Close() }, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory location store, data is lost on restart")
		return NewMemoryLocationRepository(), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
