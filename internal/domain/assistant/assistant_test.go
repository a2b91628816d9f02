package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
)

func TestParseModel(t *testing.T) {
	m, err := ParseModel("")
	assert.NoError(t, err)
	assert.Equal(t, ModelGemini, m)

	m, err = ParseModel("DeepSeek")
	assert.NoError(t, err)
	assert.Equal(t, ModelDeepSeek, m)

	_, err = ParseModel("claude")
	assert.ErrorIs(t, err, shared.ErrInvalidModel)
}
