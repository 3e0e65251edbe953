package transfork

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath_HasPrefix(t *testing.T) {
	tests := map[string]struct {
		path   Path
		prefix Path
		want   bool
	}{
		"empty prefix": {
			path:   Path{"room1", "cam"},
			prefix: Path{},
			want:   true,
		},
		"segment prefix": {
			path:   Path{"room1", "cam"},
			prefix: Path{"room1"},
			want:   true,
		},
		"equal": {
			path:   Path{"room1", "cam"},
			prefix: Path{"room1", "cam"},
			want:   true,
		},
		"partial segment is not a prefix": {
			path:   Path{"room10", "cam"},
			prefix: Path{"room1"},
			want:   false,
		},
		"longer prefix": {
			path:   Path{"room1"},
			prefix: Path{"room1", "cam"},
			want:   false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.HasPrefix(tt.prefix))
		})
	}
}

func TestPath_TrimPrefixAndJoin(t *testing.T) {
	path := Path{"room1", "cam", "hd"}

	suffix, ok := path.TrimPrefix(Path{"room1"})
	assert.True(t, ok)
	assert.Equal(t, Path{"cam", "hd"}, suffix)

	_, ok = path.TrimPrefix(Path{"room2"})
	assert.False(t, ok)

	prefix := Path{"room1"}
	joined := prefix.Join(suffix...)
	assert.True(t, joined.Equal(path))
	assert.Equal(t, Path{"room1"}, prefix)
}

func TestPath_Key(t *testing.T) {
	assert.NotEqual(t, Path{"a/b"}.key(), Path{"a", "b"}.key())
	assert.Equal(t, "a/b", Path{"a", "b"}.String())
}
