package serde

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formatted struct {
	Value string
}

func decodeFormatted(t *testing.T, format, value string) error {
	reg := NewRegistry()
	_, err := Register[formatted](reg, Field("Value", String, Name("value"), Format(format)))
	require.NoError(t, err)
	_, err = Decode[formatted](reg, map[string]any{"value": value}, "")
	return err
}

func TestNamedFormats(t *testing.T) {
	cases := []struct {
		format string
		good   []string
		bad    []string
	}{
		{"identifier", []string{"users", "_tmp", "a$1"}, []string{"1abc", "bad user", "x-y"}},
		{"dns-label", []string{"prod-db", "a1"}, []string{"Prod", "-x", "a_b"}},
		{"qualified-name", []string{"app.kubernetes.io/name", "name"}, []string{"/x", "a b"}},
		{"uuid", []string{"123e4567-e89b-12d3-a456-426614174000"}, []string{"123e4567", "zzze4567-e89b-12d3-a456-426614174000"}},
		{"email", []string{"dev@example.com"}, []string{"dev", "Dev <dev@example.com>"}},
		{`^\d{3}$`, []string{"123"}, []string{"12", "abcd"}},
	}
	for _, c := range cases {
		t.Run(c.format, func(t *testing.T) {
			for _, v := range c.good {
				assert.NoError(t, decodeFormatted(t, c.format, v), v)
			}
			for _, v := range c.bad {
				err := decodeFormatted(t, c.format, v)
				assert.True(t, IsValidation(err), v)
			}
		})
	}
}

func TestRegisterFormat(t *testing.T) {
	RegisterFormat("upper", func(v string) error {
		for _, r := range v {
			if r < 'A' || r > 'Z' {
				return errors.New("must be upper case")
			}
		}
		return nil
	})

	assert.NoError(t, decodeFormatted(t, "upper", "ABC"))
	err := decodeFormatted(t, "upper", "AbC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be upper case")
}
