package datastores

import (
	"database/sql/driver"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// ContactID is a random [uuid.UUID] that uses [base64.RawURLEncoding]
// to marshal to and from text. It is stored in its canonical form.
type ContactID uuid.UUID

func newContactID() ContactID { return ContactID(uuid.Must(uuid.NewRandom())) }

func (ContactID) encoding() *base64.Encoding { return base64.RawURLEncoding }

func (id ContactID) encodedLen() int {
	return id.encoding().EncodedLen(len(id))
}

func (id ContactID) String() string {
	b, _ := id.AppendText(nil)
	return string(b)
}

// AppendText implements [encoding.TextAppender].
func (id ContactID) AppendText(b []byte) ([]byte, error) {
	return id.encoding().AppendEncode(b, id[:]), nil
}

// MarshalText implements [encoding.TextMarshaler].
func (id ContactID) MarshalText() ([]byte, error) {
	return id.AppendText(nil)
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ContactID) UnmarshalText(b []byte) error {
	if len(b) != id.encodedLen() {
		return errors.New("invalid length")
	}
	_, err := id.encoding().Decode(id[:], b)
	return err
}

// Value implements [driver.Valuer].
func (id ContactID) Value() (driver.Value, error) {
	return uuid.UUID(id).String(), nil
}

// Scan implements [sql.Scanner].
func (id *ContactID) Scan(src any) error {
	return (*uuid.UUID)(id).Scan(src)
}
