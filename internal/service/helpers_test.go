package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"flea/internal/apperror"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"10", "10", true},
		{"10,5", "10.5", true},
		{" 0.01 ", "0.01", true},
		{"999999.99", "999999.99", true},
		{"12.345", "12.35", true},
		{"0", "", false},
		{"-3", "", false},
		{"1000000", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got.String(), tc.raw)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 100))

	exact := strings.Repeat("a", 100)
	assert.Equal(t, exact, truncate(exact, 100))

	long := strings.Repeat("ñ", 101)
	got := truncate(long, 100)
	assert.Equal(t, strings.Repeat("ñ", 100)+"...", got)
}

func TestNormalizeTelegram(t *testing.T) {
	assert.Equal(t, "vendedor", normalizeTelegram(" @vendedor "))
	assert.Equal(t, "vendedor", normalizeTelegram("vendedor"))
	assert.Equal(t, "", normalizeTelegram("@"))
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids, ok := parseIDs([]string{a.String(), "", b.String(), a.String()})
	assert.True(t, ok)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	_, ok = parseIDs([]string{"nope"})
	assert.False(t, ok)
}

func TestInternal_PassesClassifiedErrors(t *testing.T) {
	biz := apperror.Business("ya existe")
	assert.Same(t, biz, internal(biz, "fallo"))

	err := internal(errors.New("db down"), "fallo")
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Equal(t, "fallo", apperror.MessageOf(err, ""))
}
