package datastores

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
)

// ContactsInmem implements [ContactsStore].
// A write transaction holds the store lock until it ends and works on a copy
// of the contacts that replaces the original on commit.
type ContactsInmem struct {
	mu       sync.RWMutex
	contacts []Contact // insertion order
	opts     options
}

var _ ContactsStore = (*ContactsInmem)(nil)

func NewContactsInmem(opts ...Option) *ContactsInmem {
	return &ContactsInmem{opts: newOptions(opts)}
}

func (s *ContactsInmem) Begin(ctx context.Context, readOnly bool) (ContactsTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if readOnly {
		s.mu.RLock()
		return &contactsInmemTx{s: s, contacts: s.contacts, readOnly: true}, nil
	}
	s.mu.Lock()
	return &contactsInmemTx{s: s, contacts: slices.Clone(s.contacts)}, nil
}

func (*ContactsInmem) Migrate(context.Context) error { return nil }
func (*ContactsInmem) Ping(context.Context) error { return nil }
func (*ContactsInmem) Close() error { return nil }

type contactsInmemTx struct {
	s        *ContactsInmem
	contacts []Contact
	readOnly bool
	done     bool
}

var errReadOnly = errors.New("store: write in a read-only transaction")

func (tx *contactsInmemTx) check(ctx context.Context, write bool) error {
	switch {
	case tx.done:
		return ErrTxDone
	case write && tx.readOnly:
		return errReadOnly
	default:
		return ctx.Err()
	}
}

func (tx *contactsInmemTx) index(id ContactID) int {
	return slices.IndexFunc(tx.contacts, func(c Contact) bool { return c.ID == id })
}

func (tx *contactsInmemTx) Insert(ctx context.Context, content Content) (Contact, error) {
	if err := tx.check(ctx, true); err != nil {
		return Contact{}, err
	}
	c := Contact{Content: content, CreatedAt: tx.s.opts.timestamp()}
retry:
	c.ID = newContactID()
	if tx.index(c.ID) >= 0 {
		goto retry
	}
	tx.contacts = append(tx.contacts, c)
	return c, nil
}

func (tx *contactsInmemTx) List(ctx context.Context) ([]Contact, error) {
	if err := tx.check(ctx, false); err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(tx.contacts))
	for i := len(tx.contacts) - 1; i >= 0; i-- {
		contacts = append(contacts, tx.contacts[i])
	}
	slices.SortStableFunc(contacts, func(a, b Contact) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return contacts, nil
}

func (tx *contactsInmemTx) Get(ctx context.Context, id ContactID) (Contact, bool, error) {
	if err := tx.check(ctx, false); err != nil {
		return Contact{}, false, err
	}
	i := tx.index(id)
	if i < 0 {
		return Contact{}, false, nil
	}
	return tx.contacts[i], true, nil
}

func (tx *contactsInmemTx) Replace(ctx context.Context, id ContactID, content Content) (Contact, bool, error) {
	if err := tx.check(ctx, true); err != nil {
		return Contact{}, false, err
	}
	i := tx.index(id)
	if i < 0 {
		return Contact{}, false, nil
	}
	tx.contacts[i].Content = content
	return tx.contacts[i], true, nil
}

func (tx *contactsInmemTx) Delete(ctx context.Context, id ContactID) (Contact, bool, error) {
	if err := tx.check(ctx, true); err != nil {
		return Contact{}, false, err
	}
	i := tx.index(id)
	if i < 0 {
		return Contact{}, false, nil
	}
	c := tx.contacts[i]
	tx.contacts = slices.Delete(tx.contacts, i, i+1)
	return c, true, nil
}

func (tx *contactsInmemTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	if !tx.readOnly {
		tx.s.contacts = tx.contacts
	}
	tx.end()
	return nil
}

func (tx *contactsInmemTx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.end()
	return nil
}

func (tx *contactsInmemTx) end() {
	tx.done = true
	if tx.readOnly {
		tx.s.mu.RUnlock()
	} else {
		tx.s.mu.Unlock()
	}
}
