package source

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/procstore/internal/record"
)

func TestSimulator(t *testing.T) {
	s := NewSimulator()
	fixed := time.Unix(1700000000, 42)
	s.now = func() time.Time { return fixed }

	first, err := s.Sample(context.Background())
	require.NoError(t, err)
	second, err := s.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]int16{first.A, first.B, first.C, first.D, first.E, first.F, first.G, first.H, first.I})
	assert.EqualValues(t, 10, first.J)
	assert.EqualValues(t, 11, first.K)
	assert.EqualValues(t, 1, first.L)
	assert.EqualValues(t, 2, second.L)
	assert.Equal(t, uint64(fixed.UnixNano()), first.M)
	assert.Equal(t, uuid.NodeID(), first.N[:])
}

func requireEcho(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
}

func TestCommandSampler(t *testing.T) {
	requireEcho(t)

	c, err := NewCommandSampler(`echo 1 2 3 4 5 6 7 8 9 10 11 "12" 13 'aa:bb:cc:dd:ee:ff' 15`)
	require.NoError(t, err)

	rec, err := c.Sample(context.Background())
	require.NoError(t, err)

	assert.Equal(t, record.Record{
		A: 1, B: 2, C: 3, D: 4, E: 5, F: 6, G: 7, H: 8, I: 9,
		J: 10, K: 11, L: 12, M: 13,
		N: [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		O: 15,
	}, rec)
}

func TestCommandSamplerErrors(t *testing.T) {
	t.Run("empty command", func(t *testing.T) {
		_, err := NewCommandSampler("   ")
		assert.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := NewCommandSampler(`echo "1 2`)
		assert.Error(t, err)
	})

	t.Run("malformed output", func(t *testing.T) {
		requireEcho(t)

		c, err := NewCommandSampler("echo 1 2 3")
		require.NoError(t, err)
		_, err = c.Sample(context.Background())
		assert.ErrorIs(t, err, record.ErrFieldCount)
	})

	t.Run("missing binary", func(t *testing.T) {
		c, err := NewCommandSampler("procstore-sampler-that-does-not-exist")
		require.NoError(t, err)
		_, err = c.Sample(context.Background())
		assert.Error(t, err)
	})
}

func TestCommandSamplerString(t *testing.T) {
	c, err := NewCommandSampler(`sensors --format "raw fields"`)
	require.NoError(t, err)

	words, err := shellquote.Split(c.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"sensors", "--format", "raw fields"}, words)
}
