package datastores

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactIDText(t *testing.T) {
	id := newContactID()

	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Len(t, text, 22)
	assert.Equal(t, string(text), id.String())

	var parsed ContactID
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, id, parsed)

	assert.Error(t, parsed.UnmarshalText([]byte("short")))
	assert.Error(t, parsed.UnmarshalText([]byte("!!!!!!!!!!!!!!!!!!!!!!")))
}

func TestContactIDJSON(t *testing.T) {
	v := struct{ ID ContactID }{newContactID()}

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"`+v.ID.String()+`"}`, string(b))

	var w struct{ ID ContactID }
	require.NoError(t, json.Unmarshal(b, &w))
	assert.Equal(t, v, w)
}

func TestContactIDSQL(t *testing.T) {
	id := newContactID()

	value, err := id.Value()
	require.NoError(t, err)
	assert.Equal(t, uuid.UUID(id).String(), value)

	var scanned ContactID
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, id, scanned)

	scanned = ContactID{}
	require.NoError(t, scanned.Scan([]byte(value.(string))))
	assert.Equal(t, id, scanned)

	assert.Error(t, scanned.Scan("not a uuid"))
}

func TestContactIDRandom(t *testing.T) {
	a, b := newContactID(), newContactID()
	assert.NotEqual(t, a, b)
	assert.Equal(t, uuid.Version(4), uuid.UUID(a).Version())
}
