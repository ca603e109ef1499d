package compressor

import (
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/querydesk-go/pkg/util/hardware"
)

// ZstdCompressor 使用 klauspost/compress/zstd 的整块编解码，EncodeAll/DecodeAll 可并发调用。
type ZstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Compressor = (*ZstdCompressor)(nil)

type zstdOption struct {
	level       zstd.EncoderLevel
	concurrency int
	maxMemory   uint64
}

// ZstdOption 配置 ZstdCompressor。
type ZstdOption func(*zstdOption)

// WithZstdLevel 设置压缩级别，默认 zstd.SpeedDefault。
func WithZstdLevel(level zstd.EncoderLevel) ZstdOption {
	return func(o *zstdOption) {
		o.level = level
	}
}

// WithZstdConcurrency 设置编解码并发度，<= 0 时使用 CPU 核数。
func WithZstdConcurrency(n int) ZstdOption {
	return func(o *zstdOption) {
		o.concurrency = n
	}
}

// WithZstdMaxMemory 限制单次解码的内存占用，防止损坏或恶意文件撑爆内存。
func WithZstdMaxMemory(n uint64) ZstdOption {
	return func(o *zstdOption) {
		o.maxMemory = n
	}
}

func NewZstdCompressor(opts ...ZstdOption) (*ZstdCompressor, error) {
	o := &zstdOption{level: zstd.SpeedDefault, maxMemory: 64 << 20}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency <= 0 {
		o.concurrency = hardware.GetCPUNum()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(o.level),
		zstd.WithEncoderConcurrency(o.concurrency),
		zstd.WithZeroFrames(true))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(o.concurrency),
		zstd.WithDecoderMaxMemory(o.maxMemory))
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &ZstdCompressor{enc: enc, dec: dec}, nil
}

func (c *ZstdCompressor) Name() string {
	return NameZstd
}

func (c *ZstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	if c.enc == nil {
		return nil, zstd.ErrEncoderClosed
	}
	return c.enc.EncodeAll(src, dst[:0:cap(dst)]), nil
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	if c.dec == nil {
		return nil, zstd.ErrDecoderClosed
	}
	return c.dec.DecodeAll(src, dst[:0:cap(dst)])
}

// Close 释放编解码器，之后的调用返回 ErrEncoderClosed 或 ErrDecoderClosed。
func (c *ZstdCompressor) Close() {
	if c.enc != nil {
		_ = c.enc.Close()
		c.enc = nil
	}
	if c.dec != nil {
		c.dec.Close()
		c.dec = nil
	}
}
