package tray

import (
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/runcat/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRendererReportsInputLines(t *testing.T) {
	r := NewLogRenderer(logger.WithComponent("renderer"), strings.NewReader("toggle_theme\n\n  character/parrot \nexit\n"))

	var (
		mu  sync.Mutex
		ids []string
	)
	r.OnAction(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, id)
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ids) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{MenuToggleTheme, CharacterID("parrot"), MenuExit}, ids)
}

func TestLogRendererWithoutInput(t *testing.T) {
	r := NewLogRenderer(nil, nil)
	r.OnAction(func(string) { t.Error("no input, no actions") })
	assert.NoError(t, r.Close())
}

func TestRecordingRendererClick(t *testing.T) {
	r := NewRecordingRenderer()
	assert.False(t, r.Click(MenuExit))

	var got string
	r.OnAction(func(id string) { got = id })
	assert.True(t, r.Click(MenuExit))
	assert.Equal(t, MenuExit, got)
}
