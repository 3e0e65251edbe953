package transfork

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_ReadFrameInOrder(t *testing.T) {
	group := newGroup(3)
	reader := group.Reader()
	defer reader.Close()

	require.NoError(t, group.WriteFrame([]byte("a")))
	require.NoError(t, group.WriteFrame([]byte("b")))
	group.Close()

	ctx := context.Background()

	frame, err := reader.ReadFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), frame)

	frame, err = reader.ReadFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), frame)

	_, err = reader.ReadFrame(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, 2, reader.Index())
	assert.Equal(t, GroupSequence(3), reader.Sequence())
}

func TestGroup_ReadFrameWaitsForWriter(t *testing.T) {
	group := newGroup(0)
	reader := group.Reader()
	defer reader.Close()

	got := make(chan []byte, 1)
	go func() {
		frame, err := reader.ReadFrame(context.Background())
		if err == nil {
			got <- frame
		}
	}()

	select {
	case <-got:
		t.Fatal("read before write")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, group.WriteFrame([]byte("late")))

	select {
	case frame := <-got:
		assert.Equal(t, []byte("late"), frame)
	case <-time.After(time.Second):
		t.Fatal("reader was not woken")
	}
}

func TestGroup_CloseWithError(t *testing.T) {
	group := newGroup(0)
	reader := group.Reader()
	defer reader.Close()

	require.NoError(t, group.WriteFrame([]byte("a")))
	group.CloseWithError(InternalErrorCode)
	group.Close()

	_, err := reader.ReadFrame(context.Background())
	require.NoError(t, err)

	_, err = reader.ReadFrame(context.Background())
	var closed *Closed
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, InternalErrorCode, closed.Code)

	assert.Equal(t, closed, group.WriteFrame([]byte("b")))
}

func TestGroup_WriteFrames(t *testing.T) {
	group := newGroup(0)

	require.NoError(t, group.WriteFrames([]byte("a"), []byte("b")))
	assert.Equal(t, 2, group.Len())

	select {
	case <-group.Done():
	default:
		t.Fatal("group is not closed")
	}

	assert.ErrorIs(t, group.WriteFrame([]byte("c")), ErrClosedGroup)
}

func TestGroupReader_CloseIsReferenceCounted(t *testing.T) {
	group := newGroup(0)
	first := group.Reader()
	second := group.Reader()

	first.Close()
	first.Close()
	assert.Nil(t, group.Err())

	second.Close()
	require.NotNil(t, group.Err())
	assert.True(t, group.Err().Clean())

	_, err := first.ReadFrame(context.Background())
	assert.ErrorIs(t, err, ErrClosedReader)
}

func TestGroupReader_ContextCanceled(t *testing.T) {
	group := newGroup(0)
	reader := group.Reader()
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.ReadFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
