package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

func TestNewFile(t *testing.T) {
	f, err := NewFile("../../etc/notes.pdf", "", "term notes", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", f.Filename)
	assert.Equal(t, "application/octet-stream", f.Filetype)

	_, err = NewFile("empty.txt", "text/plain", "", nil)
	assert.ErrorIs(t, err, shared.ErrFileRequired)

	_, err = NewFile("", "text/plain", "", []byte("x"))
	assert.ErrorIs(t, err, shared.ErrFileRequired)
}
