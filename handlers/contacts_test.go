package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaiiae/contactbook/contacts"
	ds "github.com/oaiiae/contactbook/datastores"
	"github.com/oaiiae/contactbook/handlers"
)

var ada = map[string]any{
	"name":    "Ada Lovelace",
	"email":   "ada@example.com",
	"phone":   "01234567890",
	"address": "10 Downing St",
}

func newAPI(t *testing.T, store ds.ContactsStore, errorHandler func(context.Context, error)) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	huma.AutoRegister(huma.NewGroup(api, "/contacts"), &handlers.Contacts{
		Service:      contacts.New(store),
		ErrorHandler: errorHandler,
	})
	return api
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestContactsLifecycle(t *testing.T) {
	api := newAPI(t, ds.NewContactsInmem(), nil)

	resp := api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	resp = api.Post("/contacts/", ada)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[handlers.ContactModel](t, resp.Body.Bytes())
	assert.NotZero(t, created.ID)
	assert.NotZero(t, created.CreatedAt)
	assert.Equal(t, "Ada Lovelace", created.Name)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "01234567890", created.Phone)
	assert.Equal(t, "10 Downing St", created.Address)

	path := "/contacts/" + created.ID.String()

	resp = api.Get(path)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, created.ID, decode[handlers.ContactModel](t, resp.Body.Bytes()).ID)

	resp = api.Put(path, map[string]any{
		"name":    "Augusta Ada King",
		"email":   "ada@example.org",
		"phone":   "0000",
		"address": "St James's Square",
	})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	updated := decode[handlers.ContactModel](t, resp.Body.Bytes())
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.Equal(t, "Augusta Ada King", updated.Name)

	resp = api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[[]handlers.ContactModel](t, resp.Body.Bytes())
	require.Len(t, list, 1)
	assert.Equal(t, updated, list[0])

	resp = api.Delete(path)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	assert.Equal(t, updated, decode[handlers.ContactModel](t, resp.Body.Bytes()))

	resp = api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestContactsNotFound(t *testing.T) {
	api := newAPI(t, ds.NewContactsInmem(), nil)
	id := ds.ContactID{}.String()

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"get":    api.Get("/contacts/" + id),
		"put":    api.Put("/contacts/"+id, ada),
		"delete": api.Delete("/contacts/" + id),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusNotFound, resp.Code)
			body := decode[huma.ErrorModel](t, resp.Body.Bytes())
			assert.Equal(t, "contact "+id+" not found", body.Detail)
		})
	}
}

func TestContactsInvalidInput(t *testing.T) {
	api := newAPI(t, ds.NewContactsInmem(), nil)

	for name, body := range map[string]map[string]any{
		"missing email": {"name": "Ada", "phone": "1", "address": "x"},
		"empty name":    {"name": "", "email": "ada@example.com", "phone": "1", "address": "x"},
		"bad email":     {"name": "Ada", "email": "not an email", "phone": "1", "address": "x"},
		"long phone":    {"name": "Ada", "email": "ada@example.com", "phone": strings.Repeat("1", 33), "address": "x"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := api.Post("/contacts/", body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
		})
	}

	resp := api.Get("/contacts/not-an-id")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())

	resp = api.Get("/contacts/")
	assert.JSONEq(t, `[]`, resp.Body.String())
}

// brokenStore fails to begin any transaction.
type brokenStore struct{ ds.ContactsStore }

func (brokenStore) Begin(context.Context, bool) (ds.ContactsTx, error) {
	return nil, errors.New("connection refused")
}

func TestContactsStoreFailure(t *testing.T) {
	var handled []error
	api := newAPI(t, brokenStore{ds.NewContactsInmem()}, func(_ context.Context, err error) {
		handled = append(handled, err)
	})

	resp := api.Get("/contacts/")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	body := decode[huma.ErrorModel](t, resp.Body.Bytes())
	assert.Equal(t, "failed to get all contacts: connection refused", body.Detail)

	resp = api.Post("/contacts/", ada)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	body = decode[huma.ErrorModel](t, resp.Body.Bytes())
	assert.Equal(t, "failed to create new contact: connection refused", body.Detail)

	require.Len(t, handled, 2)
	var opErr *contacts.OperationError
	require.ErrorAs(t, handled[0], &opErr)
	assert.Equal(t, "get all contacts", opErr.Op)
	assert.EqualError(t, opErr.Err, "connection refused")
	require.ErrorAs(t, handled[1], &opErr)
	assert.Equal(t, "create new contact", opErr.Op)
}

func TestContactsErrorHandlerSeesNotFound(t *testing.T) {
	var handled []error
	api := newAPI(t, ds.NewContactsInmem(), func(_ context.Context, err error) {
		handled = append(handled, err)
	})

	resp := api.Get("/contacts/" + ds.ContactID{}.String())
	require.Equal(t, http.StatusNotFound, resp.Code)

	require.Len(t, handled, 1)
	var statusErr huma.StatusError
	require.ErrorAs(t, handled[0], &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
}
