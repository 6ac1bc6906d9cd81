package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/contactbook/contacts"
	ds "github.com/oaiiae/contactbook/datastores"
)

// Contacts serves the contacts of [contacts.Service]. ErrorHandler, if set,
// receives every operation error before it becomes a [huma.StatusError].
type Contacts struct {
	Service      *contacts.Service
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID        ds.ContactID `json:"id"         readOnly:"true"`
	CreatedAt time.Time    `json:"created_at" readOnly:"true"`

	ContactInputModel
}

type ContactInputModel struct {
	Name    string `json:"name"    minLength:"1" maxLength:"255" example:"Ada Lovelace"`
	Email   string `json:"email"   minLength:"1" maxLength:"255" example:"ada@example.com" format:"email"`
	Phone   string `json:"phone"   minLength:"1" maxLength:"32"  example:"01234567890"`
	Address string `json:"address" minLength:"1"                 example:"10 Downing St"`
}

func (m *ContactInputModel) content() ds.Content {
	return ds.Content{Name: m.Name, Email: m.Email, Phone: m.Phone, Address: m.Address}
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		ContactInputModel: ContactInputModel{
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Address: c.Address,
		},
	}
}

// contactError converts errors returned by [contacts.Service] to [huma.StatusError].
// Others, like the ones of [contactNotFound], are returned as is.
func contactError(err error) error {
	var opErr *contacts.OperationError
	switch {
	case errors.Is(err, ds.ErrInvalidContent):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.As(err, &opErr):
		return huma.Error500InternalServerError(opErr.Error())
	default:
		return err
	}
}

func contactNotFound(id ds.ContactID) error {
	return huma.Error404NotFound("contact " + id.String() + " not found")
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/",
		reported(h.list, h.ErrorHandler, contactError),
		opSummary("List contacts", "Lists all contacts, newest first."),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Service.List(ctx)
	if err != nil {
		return nil, err
	}

	body := make([]ContactModel, 0, len(contacts))
	for i := range contacts {
		body = append(body, contactModel(&contacts[i]))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/",
		reported(h.create, h.ErrorHandler, contactError),
		opSummary("Create contact", ""),
		opStatus(http.StatusCreated),
		opErrors(http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

type ContactOutput struct {
	Body ContactModel
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body ContactInputModel
}) (*ContactOutput, error) {
	contact, err := h.Service.Create(ctx, input.Body.content())
	if err != nil {
		return nil, err
	}
	return &ContactOutput{Body: contactModel(&contact)}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		reported(h.get, h.ErrorHandler, contactError),
		opSummary("Get contact", ""),
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to get"`
}) (*ContactOutput, error) {
	contact, ok, err := h.Service.Get(ctx, input.ID)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, contactNotFound(input.ID)
	default:
		return &ContactOutput{Body: contactModel(&contact)}, nil
	}
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		reported(h.put, h.ErrorHandler, contactError),
		opSummary("Update contact", "Replaces every field of the contact."),
		opStatus(http.StatusAccepted),
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   ds.ContactID `path:"id" doc:"ID of the contact to update"`
	Body ContactInputModel
}) (*ContactOutput, error) {
	contact, ok, err := h.Service.Update(ctx, input.ID, input.Body.content())
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, contactNotFound(input.ID)
	default:
		return &ContactOutput{Body: contactModel(&contact)}, nil
	}
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		reported(h.del, h.ErrorHandler, contactError),
		opSummary("Delete contact", "Deletes the contact and returns it."),
		opStatus(http.StatusAccepted),
		opErrors(http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID ds.ContactID `path:"id" doc:"ID of the contact to delete"`
}) (*ContactOutput, error) {
	contact, ok, err := h.Service.Delete(ctx, input.ID)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, contactNotFound(input.ID)
	default:
		return &ContactOutput{Body: contactModel(&contact)}, nil
	}
}
