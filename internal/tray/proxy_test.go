package tray

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyDropsFramesBeforeStart(t *testing.T) {
	p := NewProxy()

	require.NoError(t, p.EmitFrame(context.Background(), 3))
	_, ok := p.frames.TryRead()
	assert.False(t, ok)
	assert.Zero(t, p.FrameStats().Published)
}

func TestProxyCoalescesFrames(t *testing.T) {
	p := NewProxy()
	require.True(t, p.start())
	require.False(t, p.start())

	for i := 0; i < 5; i++ {
		require.NoError(t, p.EmitFrame(context.Background(), i))
	}

	index, ok := p.frames.TryRead()
	require.True(t, ok)
	assert.Equal(t, 4, index)

	stats := p.FrameStats()
	assert.Equal(t, uint64(5), stats.Published)
	assert.Equal(t, uint64(4), stats.Dropped)
}

func TestProxyClosed(t *testing.T) {
	p := NewProxy()
	p.start()
	p.close()
	p.close()

	assert.True(t, p.Closed())
	assert.ErrorIs(t, p.EmitFrame(context.Background(), 1), ErrClosed)
	assert.ErrorIs(t, p.Send(context.Background(), MenuClicked{ID: MenuExit}), ErrClosed)

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestProxySendUnblocksOnClose(t *testing.T) {
	p := NewProxy()
	p.start()
	for i := 0; i < defaultEventBuffer; i++ {
		require.NoError(t, p.Send(context.Background(), MenuClicked{ID: MenuToggleTheme}))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- p.Send(context.Background(), MenuClicked{ID: MenuExit}) }()

	time.Sleep(10 * time.Millisecond)
	p.close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after close")
	}
}

func TestProxySendHonoursContext(t *testing.T) {
	p := NewProxy()
	for i := 0; i < defaultEventBuffer; i++ {
		require.NoError(t, p.Send(context.Background(), MenuClicked{ID: MenuToggleTheme}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Send(ctx, MenuClicked{ID: MenuExit}), context.DeadlineExceeded)
}
