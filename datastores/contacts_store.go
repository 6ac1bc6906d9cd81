package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

type (
	// Content holds the fields of a contact a caller may set.
	Content struct {
		Name    string `db:"name"`
		Email   string `db:"email"`
		Phone   string `db:"phone"`
		Address string `db:"address"`
	}

	// Contact is a stored contact. ID and CreatedAt are assigned by the store.
	Contact struct {
		ID ContactID `db:"id"`
		Content
		CreatedAt time.Time `db:"created_at"`
	}
)

const (
	MaxNameLength  = 255
	MaxEmailLength = 255
	MaxPhoneLength = 32
)

var ErrInvalidContent = errors.New("store: invalid content")

// Validate reports the first field of c that is empty or too long.
func (c *Content) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"name", c.Name, MaxNameLength},
		{"email", c.Email, MaxEmailLength},
		{"phone", c.Phone, MaxPhoneLength},
		{"address", c.Address, 0},
	} {
		n := utf8.RuneCountInString(f.value)
		switch {
		case n == 0:
			return fmt.Errorf("%w: %s is empty", ErrInvalidContent, f.name)
		case f.max > 0 && n > f.max:
			return fmt.Errorf("%w: %s is longer than %d characters", ErrInvalidContent, f.name, f.max)
		}
	}
	return nil
}

// ContactsStore owns the contacts table. Every access goes through a [ContactsTx].
type ContactsStore interface {
	Begin(ctx context.Context, readOnly bool) (ContactsTx, error)
	Migrate(context.Context) error
	Ping(context.Context) error
	Close() error
}

// ContactsTx is a transaction over the contacts table.
// A missing contact is reported with a false boolean and a nil error.
// Returned contacts are copies and stay valid after the transaction ends.
type ContactsTx interface {
	Insert(context.Context, Content) (Contact, error)
	List(context.Context) ([]Contact, error)
	Get(context.Context, ContactID) (Contact, bool, error)
	Replace(context.Context, ContactID, Content) (Contact, bool, error)
	Delete(context.Context, ContactID) (Contact, bool, error)
	Commit() error
	Rollback() error
}

// ErrTxDone is returned by a transaction that has already been committed or rolled back.
var ErrTxDone = sql.ErrTxDone

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timestamp truncates to the precision every supported backend keeps.
func (o *options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}
