package out

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focuslock/internal/modules/focus/domain"
	"focuslock/resources"
)

func TestBeepPlayerDecodesEmbeddedAlert(t *testing.T) {
	t.Parallel()
	player := NewBeepPlayer(resources.Sounds, "sounds", 0)

	player.mu.Lock()
	buffer, err := player.bufferLocked(domain.AlertSound)
	player.mu.Unlock()
	require.NoError(t, err)
	assert.Positive(t, buffer.Len())
	assert.Equal(t, 22050, int(buffer.Format().SampleRate))

	player.mu.Lock()
	again, err := player.bufferLocked(domain.AlertSound)
	player.mu.Unlock()
	require.NoError(t, err)
	assert.Same(t, buffer, again)
}

func TestBeepPlayerRejectsMissingOrCorruptSound(t *testing.T) {
	t.Parallel()
	sounds := fstest.MapFS{"sounds/bad.wav": &fstest.MapFile{Data: []byte("not a wav")}}
	player := NewBeepPlayer(sounds, "sounds", 0)

	player.mu.Lock()
	defer player.mu.Unlock()
	_, err := player.bufferLocked("missing.wav")
	require.Error(t, err)
	_, err = player.bufferLocked("bad.wav")
	require.ErrorContains(t, err, "decode sound bad.wav")
}
