package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullStringRoundTrip(t *testing.T) {
	assert.False(t, nullString(nil).Valid)
	assert.Nil(t, stringPtr(sql.NullString{}))

	s := "03-0000-0000"
	ns := nullString(&s)
	require.True(t, ns.Valid)
	assert.Equal(t, s, *stringPtr(ns))
}

func TestJSONTextLists(t *testing.T) {
	ns, err := jsonText(nil)
	require.NoError(t, err)
	assert.False(t, ns.Valid)

	ns, err = jsonText([]string{"popular", "trial"})
	require.NoError(t, err)
	got, err := stringList(ns)
	require.NoError(t, err)
	assert.Equal(t, []string{"popular", "trial"}, got)

	got, err = stringList(sql.NullString{String: "null", Valid: true})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = stringList(sql.NullString{String: "{", Valid: true})
	assert.Error(t, err)
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(nil))
	assert.Nil(t, nilIfEmpty([]string{}))
	assert.NotNil(t, nilIfEmpty([]string{"x"}))
}
