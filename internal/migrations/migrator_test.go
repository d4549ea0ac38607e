package migrations

import (
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemaIsOrdered(t *testing.T) {
	src, err := iofs.New(migrationFiles, "schema")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	assert.Contains(t, string(body), "idx_short_links_shortened_url")
	assert.Contains(t, string(body), "click_count")

	_, _, err = src.ReadDown(first)
	require.NoError(t, err)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}
