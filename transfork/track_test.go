package transfork

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_AppendGroup(t *testing.T) {
	track := NewTrack(Path{"room1", "cam"}, 1)

	_, ok := track.Latest()
	assert.False(t, ok)

	for want := range GroupSequence(3) {
		group, err := track.AppendGroup()
		require.NoError(t, err)
		assert.Equal(t, want, group.Sequence())

		latest, ok := track.Latest()
		assert.True(t, ok)
		assert.Equal(t, want, latest)
	}
}

func TestTrack_CreateGroup(t *testing.T) {
	tests := map[string]struct {
		sequences []GroupSequence
		latest    GroupSequence
	}{
		"increasing": {
			sequences: []GroupSequence{0, 1, 5},
			latest:    5,
		},
		"older group does not replace latest": {
			sequences: []GroupSequence{4, 2},
			latest:    4,
		},
		"same group does not replace latest": {
			sequences: []GroupSequence{7, 7},
			latest:    7,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			track := NewTrack(Path{"t"}, 0)

			for _, seq := range tt.sequences {
				group, err := track.CreateGroup(seq)
				require.NoError(t, err)
				assert.Equal(t, seq, group.Sequence())
			}

			latest, ok := track.Latest()
			assert.True(t, ok)
			assert.Equal(t, tt.latest, latest)
		})
	}
}

func TestTrack_AppendAfterCreate(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)

	_, err := track.CreateGroup(9)
	require.NoError(t, err)

	group, err := track.AppendGroup()
	require.NoError(t, err)
	assert.Equal(t, GroupSequence(10), group.Sequence())
}

func TestTrackReader_SkipsToLatest(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)
	reader := track.Reader()
	defer reader.Close()

	for range 3 {
		_, err := track.AppendGroup()
		require.NoError(t, err)
	}

	ctx := context.Background()

	group, err := reader.NextGroup(ctx)
	require.NoError(t, err)
	assert.Equal(t, GroupSequence(2), group.Sequence())
	group.Close()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = reader.NextGroup(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTrackReader_IndependentReaders(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)
	first := track.Reader()
	defer first.Close()
	second := first.Clone()
	defer second.Close()

	_, err := track.AppendGroup()
	require.NoError(t, err)

	ctx := context.Background()

	a, err := first.NextGroup(ctx)
	require.NoError(t, err)
	b, err := second.NextGroup(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.Sequence(), b.Sequence())
}

func TestTrackReader_Close(t *testing.T) {
	tests := map[string]struct {
		code    ErrorCode
		wantEOF bool
	}{
		"clean close": {
			code:    NoErrorCode,
			wantEOF: true,
		},
		"error close": {
			code:    NotFoundErrorCode,
			wantEOF: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			track := NewTrack(Path{"t"}, 0)
			reader := track.Reader()
			defer reader.Close()

			group, err := track.AppendGroup()
			require.NoError(t, err)

			track.CloseWithError(tt.code)

			// A group appended before the close is still delivered.
			next, err := reader.NextGroup(context.Background())
			require.NoError(t, err)
			assert.Equal(t, group.Sequence(), next.Sequence())

			_, err = reader.NextGroup(context.Background())
			if tt.wantEOF {
				assert.ErrorIs(t, err, io.EOF)
				assert.Nil(t, group.Err())
			} else {
				assert.ErrorIs(t, err, &Closed{Code: tt.code})
				assert.Equal(t, &Closed{Code: tt.code}, group.Err())
			}

			_, err = track.AppendGroup()
			assert.Error(t, err)
		})
	}
}

func TestTrack_CloseKeepsFirstReason(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)

	track.CloseWithError(InternalErrorCode)
	track.Close()

	assert.Equal(t, &Closed{Code: InternalErrorCode}, track.Err())

	select {
	case <-track.Done():
	default:
		t.Fatal("track is not done")
	}
}

func TestTrackReader_CloseIsReferenceCounted(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)
	first := track.Reader()
	second := track.Reader()

	first.Close()
	first.Close()
	assert.Nil(t, track.Err())

	second.Close()
	require.NotNil(t, track.Err())
	assert.True(t, track.Err().Clean())

	_, err := first.NextGroup(context.Background())
	assert.ErrorIs(t, err, ErrClosedReader)
}

func TestTrack_Order(t *testing.T) {
	track := NewTrack(Path{"t"}, 0)
	assert.Equal(t, GroupOrderAny, track.Order())

	track.SetOrder(GroupOrderDescending)
	assert.Equal(t, GroupOrderDescending, track.Reader().Order())
}
