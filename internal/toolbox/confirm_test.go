package toolbox

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineConfirmer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty means yes", "\n", true},
		{"y", "y\n", true},
		{"YES", "YES\n", true},
		{"padded yes", "  yes \n", true},
		{"n", "n\n", false},
		{"other", "maybe\n", false},
		{"no trailing newline", "y", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			c := LineConfirmer{In: bufio.NewReader(strings.NewReader(tt.input)), Out: &out}

			got, err := c.Confirm("Download socatx64.bin?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Download socatx64.bin? [Y/n]: ", out.String())
		})
	}
}

func TestLineConfirmer_ConsumesOneLine(t *testing.T) {
	t.Parallel()

	in := bufio.NewReader(strings.NewReader("n\nid\n"))
	c := LineConfirmer{In: in, Out: io.Discard}

	got, err := c.Confirm("?")
	require.NoError(t, err)
	assert.False(t, got)

	rest, err := in.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "id\n", rest)
}

func TestLineConfirmer_EOF(t *testing.T) {
	t.Parallel()

	c := LineConfirmer{In: bufio.NewReader(strings.NewReader("")), Out: io.Discard}
	got, err := c.Confirm("?")
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, got)
}

func TestAlwaysConfirm(t *testing.T) {
	t.Parallel()

	got, err := AlwaysConfirm.Confirm("anything")
	require.NoError(t, err)
	assert.True(t, got)
}
