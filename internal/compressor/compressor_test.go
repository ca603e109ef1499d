package compressor

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

func TestCompressors(t *testing.T) {
	src := bytes.Repeat([]byte(`{"id":"q1","query":"select * from orders"}`), 64)
	for _, name := range []string{NameNone, NameZstd, NameS2} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			packet, err := c.Compress(nil, src)
			require.NoError(t, err)
			if name != NameNone {
				assert.Less(t, len(packet), len(src))
			}

			plain, err := c.Decompress(nil, packet)
			require.NoError(t, err)
			assert.Equal(t, src, plain)
		})
	}

	_, err := New("lz4")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestZstdClose(t *testing.T) {
	c, err := NewZstdCompressor(WithZstdConcurrency(2), WithZstdLevel(zstd.SpeedBestCompression))
	require.NoError(t, err)

	packet, err := c.Compress(make([]byte, 0, 16), []byte("hello"))
	require.NoError(t, err)
	_, err = c.Decompress(nil, []byte("not zstd"))
	assert.Error(t, err)

	c.Close()
	_, err = c.Compress(nil, []byte("hello"))
	assert.ErrorIs(t, err, zstd.ErrEncoderClosed)
	_, err = c.Decompress(nil, packet)
	assert.ErrorIs(t, err, zstd.ErrDecoderClosed)
}

func TestZstdMaxMemory(t *testing.T) {
	big := make([]byte, 1<<20)
	c, err := NewZstdCompressor(WithZstdMaxMemory(1 << 10))
	require.NoError(t, err)
	defer c.Close()

	packet, err := c.Compress(nil, big)
	require.NoError(t, err)
	_, err = c.Decompress(nil, packet)
	assert.Error(t, err)
}
