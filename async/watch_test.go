package async

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_Update(t *testing.T) {
	w := NewWatch(1)

	v, next := w.Value()
	assert.Equal(t, 1, v)
	require.NotNil(t, next)

	require.NoError(t, w.Update(2))

	select {
	case <-next:
	default:
		t.Fatal("update did not wake the observer")
	}

	v, _ = w.Value()
	assert.Equal(t, 2, v)

	require.NoError(t, w.UpdateFunc(func(v int) int { return v * 10 }))
	v, _ = w.Value()
	assert.Equal(t, 20, v)
}

func TestWatch_FanOut(t *testing.T) {
	w := NewWatch("a")
	_, next := w.Value()

	var wg sync.WaitGroup
	seen := make(chan string, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-next
			v, _ := w.Value()
			seen <- v
		}()
	}

	require.NoError(t, w.Update("b"))
	wg.Wait()
	close(seen)

	for v := range seen {
		assert.Equal(t, "b", v)
	}
}

func TestWatch_Close(t *testing.T) {
	w := NewWatch(1)
	_, next := w.Value()

	w.Close()
	w.Close()

	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("close did not wake the observer")
	}

	v, next := w.Value()
	assert.Equal(t, 1, v)
	assert.Nil(t, next)
	assert.True(t, w.Closed())

	assert.ErrorIs(t, w.Update(2), ErrClosed)
	v, _ = w.Value()
	assert.Equal(t, 1, v)
}
