// Package datastore opens the contacts store selected by the options.
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/oaiiae/contactbook/datastores"
)

type StoreOptions struct {
	DatastoreDriver  string `doc:"store contacts in memory, sqlite3 or pgx"     default:"sqlite3"`
	DatastoreDSN     string `doc:"data source name of the sqlite3 or pgx store" default:"contacts.db" name:"datastore-dsn"`
	DatastoreMigrate bool   `doc:"create the contacts table before serving"     default:"true"`
}

// Open returns the configured store. SQL stores are migrated unless migrate is false.
func Open(ctx context.Context, options *StoreOptions, migrate bool, logger *slog.Logger) (datastores.ContactsStore, error) {
	driver := strings.ToLower(options.DatastoreDriver)

	var store datastores.ContactsStore
	switch driver {
	case "memory":
		store = datastores.NewContactsInmem()
	case datastores.DriverSQLite3, datastores.DriverPgx:
		s, err := datastores.OpenContactsSQL(ctx, driver, options.DatastoreDSN)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown datastore driver %q", options.DatastoreDriver)
	}

	if migrate {
		err := store.Migrate(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "datastore opened", slog.String("driver", driver))
	return store, nil
}
