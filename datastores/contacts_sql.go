package datastores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Drivers supported by [ContactsSQL]. They must be registered by the caller.
const (
	DriverSQLite3 = "sqlite3"
	DriverPgx     = "pgx"
)

//go:embed schema/*.sql
var schemas embed.FS

const contactColumns = "id, name, email, phone, address, created_at"

// ContactsSQL implements [ContactsStore] on top of a SQL database.
type ContactsSQL struct {
	db   *sqlx.DB
	opts options
}

var _ ContactsStore = (*ContactsSQL)(nil)

// OpenContactsSQL connects to the database and configures the pool for the driver.
// The schema is not applied, see [ContactsSQL.Migrate].
func OpenContactsSQL(ctx context.Context, driver, dsn string, opts ...Option) (*ContactsSQL, error) {
	if _, err := schemas.ReadFile(schemaFile(driver)); err != nil {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect to database: %w", err)
	}

	if driver == DriverSQLite3 {
		// SQLite only supports one writer at a time.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("store: failed to execute %q: %w", pragma, err)
			}
		}
	}

	return NewContactsSQL(db, opts...), nil
}

func NewContactsSQL(db *sqlx.DB, opts ...Option) *ContactsSQL {
	return &ContactsSQL{db: db, opts: newOptions(opts)}
}

func schemaFile(driver string) string { return "schema/" + driver + ".sql" }

// Migrate creates the contacts table and its index if they do not exist.
func (s *ContactsSQL) Migrate(ctx context.Context) error {
	schema, err := schemas.ReadFile(schemaFile(s.db.DriverName()))
	if err != nil {
		return fmt.Errorf("store: unsupported driver %q", s.db.DriverName())
	}
	for _, stmt := range strings.Split(string(schema), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *ContactsSQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *ContactsSQL) Close() error { return s.db.Close() }

func (s *ContactsSQL) Begin(ctx context.Context, readOnly bool) (ContactsTx, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}

	lock := ""
	if s.db.DriverName() == DriverPgx && !readOnly {
		lock = " FOR UPDATE"
	}
	return &contactsSQLTx{Tx: tx, opts: &s.opts, lock: lock}, nil
}

// contactsSQLTx returns creation times in UTC whatever the driver scans them to.
type contactsSQLTx struct {
	*sqlx.Tx
	opts *options
	lock string // row lock clause appended to lookups preceding a write
}

func (tx *contactsSQLTx) Insert(ctx context.Context, content Content) (Contact, error) {
	c := Contact{ID: newContactID(), Content: content, CreatedAt: tx.opts.timestamp()}
	_, err := tx.NamedExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`)
		 VALUES (:id, :name, :email, :phone, :address, :created_at)`,
		&c,
	)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (tx *contactsSQLTx) List(ctx context.Context) ([]Contact, error) {
	contacts := []Contact{}
	err := tx.SelectContext(ctx, &contacts,
		`SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		contacts[i].CreatedAt = contacts[i].CreatedAt.UTC()
	}
	return contacts, nil
}

func (tx *contactsSQLTx) get(ctx context.Context, id ContactID, lock string) (Contact, bool, error) {
	var c Contact
	err := tx.QueryRowxContext(ctx,
		tx.Rebind(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`+lock),
		id,
	).StructScan(&c)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Contact{}, false, nil
	case err != nil:
		return Contact{}, false, err
	default:
		c.CreatedAt = c.CreatedAt.UTC()
		return c, true, nil
	}
}

func (tx *contactsSQLTx) Get(ctx context.Context, id ContactID) (Contact, bool, error) {
	return tx.get(ctx, id, "")
}

// Replace locks the row before updating it so that the lookup and the
// update cannot be interleaved with another writer.
func (tx *contactsSQLTx) Replace(ctx context.Context, id ContactID, content Content) (Contact, bool, error) {
	c, ok, err := tx.get(ctx, id, tx.lock)
	if !ok || err != nil {
		return Contact{}, false, err
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`UPDATE contacts SET name = ?, email = ?, phone = ?, address = ? WHERE id = ?`),
		content.Name, content.Email, content.Phone, content.Address, id,
	)
	if err != nil {
		return Contact{}, false, err
	}

	c.Content = content
	return c, true, nil
}

func (tx *contactsSQLTx) Delete(ctx context.Context, id ContactID) (Contact, bool, error) {
	c, ok, err := tx.get(ctx, id, tx.lock)
	if !ok || err != nil {
		return Contact{}, false, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM contacts WHERE id = ?`), id)
	if err != nil {
		return Contact{}, false, err
	}
	return c, true, nil
}
