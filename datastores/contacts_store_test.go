package datastores

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContentValidate(t *testing.T) {
	valid := Content{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "01234567890", Address: "10 Downing St"}

	for name, tc := range map[string]struct {
		edit func(*Content)
		err  string
	}{
		"valid":             {func(*Content) {}, ""},
		"empty name":        {func(c *Content) { c.Name = "" }, "name is empty"},
		"empty email":       {func(c *Content) { c.Email = "" }, "email is empty"},
		"empty phone":       {func(c *Content) { c.Phone = "" }, "phone is empty"},
		"empty address":     {func(c *Content) { c.Address = "" }, "address is empty"},
		"long name":         {func(c *Content) { c.Name = strings.Repeat("a", 256) }, "name is longer than 255"},
		"long email":        {func(c *Content) { c.Email = strings.Repeat("a", 256) }, "email is longer than 255"},
		"long phone":        {func(c *Content) { c.Phone = strings.Repeat("1", 33) }, "phone is longer than 32"},
		"max phone":         {func(c *Content) { c.Phone = strings.Repeat("1", 32) }, ""},
		"multibyte name":    {func(c *Content) { c.Name = strings.Repeat("é", 255) }, ""},
		"unbounded address": {func(c *Content) { c.Address = strings.Repeat("a", 10000) }, ""},
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			tc.edit(&c)
			err := c.Validate()
			if tc.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidContent)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestOptionsTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	o := newOptions([]Option{WithClock(func() time.Time {
		return time.Date(2024, time.March, 1, 12, 0, 0, 123456789, loc)
	})})

	ts := o.timestamp()
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, time.Date(2024, time.March, 1, 10, 0, 0, 123456000, time.UTC), ts)
}
