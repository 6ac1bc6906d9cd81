// Package contacts implements the operations on contacts on top of a
// [datastores.ContactsStore]. Each operation runs in a single transaction.
//
// A missing contact is reported with a false boolean, never with an error, so
// that callers can tell an absent contact apart from a failing store.
package contacts

import (
	"context"
	"errors"

	"github.com/oaiiae/contactbook/datastores"
)

// OperationError reports a store failure during an operation.
// On write operations the transaction has been rolled back.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return "failed to " + e.Op + ": " + e.Err.Error() }

func (e *OperationError) Unwrap() error { return e.Err }

// Service holds no state besides its store and is safe for concurrent use.
type Service struct {
	Store datastores.ContactsStore
}

func New(store datastores.ContactsStore) *Service {
	return &Service{Store: store}
}

func (s *Service) List(ctx context.Context) ([]datastores.Contact, error) {
	contacts, _, err := inTx(ctx, s.Store, true, "get all contacts",
		func(tx datastores.ContactsTx) ([]datastores.Contact, bool, error) {
			contacts, err := tx.List(ctx)
			return contacts, true, err
		})
	return contacts, err
}

func (s *Service) Create(ctx context.Context, content datastores.Content) (datastores.Contact, error) {
	if err := content.Validate(); err != nil {
		return datastores.Contact{}, err
	}
	contact, _, err := inTx(ctx, s.Store, false, "create new contact",
		func(tx datastores.ContactsTx) (datastores.Contact, bool, error) {
			contact, err := tx.Insert(ctx, content)
			return contact, true, err
		})
	return contact, err
}

func (s *Service) Get(ctx context.Context, id datastores.ContactID) (datastores.Contact, bool, error) {
	return inTx(ctx, s.Store, true, "get contact",
		func(tx datastores.ContactsTx) (datastores.Contact, bool, error) {
			return tx.Get(ctx, id)
		})
}

// Update replaces the content of the contact. Its ID and creation time are kept.
func (s *Service) Update(
	ctx context.Context,
	id datastores.ContactID,
	content datastores.Content,
) (datastores.Contact, bool, error) {
	if err := content.Validate(); err != nil {
		return datastores.Contact{}, false, err
	}
	return inTx(ctx, s.Store, false, "update contact",
		func(tx datastores.ContactsTx) (datastores.Contact, bool, error) {
			return tx.Replace(ctx, id, content)
		})
}

// Delete removes the contact and returns it as it was before removal.
func (s *Service) Delete(ctx context.Context, id datastores.ContactID) (datastores.Contact, bool, error) {
	return inTx(ctx, s.Store, false, "delete contact",
		func(tx datastores.ContactsTx) (datastores.Contact, bool, error) {
			return tx.Delete(ctx, id)
		})
}

// inTx runs do in a transaction that is committed when do succeeds,
// including when nothing was found, and rolled back otherwise.
// The transaction is also rolled back when do panics.
func inTx[T any](
	ctx context.Context,
	store datastores.ContactsStore,
	readOnly bool,
	op string,
	do func(datastores.ContactsTx) (T, bool, error),
) (T, bool, error) {
	var zero T

	tx, err := store.Begin(ctx, readOnly)
	if err != nil {
		return zero, false, &OperationError{op, err}
	}

	returned := false
	defer func() {
		if !returned { // do panicked
			tx.Rollback()
		}
	}()

	v, ok, err := do(tx)
	returned = true
	if err != nil {
		return zero, false, &OperationError{op, rollback(tx, err)}
	}

	err = tx.Commit()
	if err != nil {
		return zero, false, &OperationError{op, rollback(tx, err)}
	}

	return v, ok, nil
}

func rollback(tx datastores.ContactsTx, err error) error {
	rbErr := tx.Rollback()
	if rbErr != nil && !errors.Is(rbErr, datastores.ErrTxDone) {
		return errors.Join(err, rbErr)
	}
	return err
}
