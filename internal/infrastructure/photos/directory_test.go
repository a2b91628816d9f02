package photos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"1234200024":"https://cdn.example/a.jpg","":"x","5678200024":""}`), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	url, ok := d.PhotoURL(shared.FccID("1234200024"))
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.example/a.jpg", url)

	_, ok = d.PhotoURL(shared.FccID("5678200024"))
	assert.False(t, ok)
}

func TestLoad_EmptyPath(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, d.Len())
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
