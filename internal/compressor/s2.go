package compressor

import (
	"github.com/klauspost/compress/s2"
)

// S2Compressor 使用 klauspost/compress/s2 的块格式，压缩率低于 zstd 但速度更快。
type S2Compressor struct{}

var _ Compressor = S2Compressor{}

func (S2Compressor) Name() string {
	return NameS2
}

func (S2Compressor) Compress(dst, src []byte) ([]byte, error) {
	return s2.Encode(dst[:0:cap(dst)], src), nil
}

func (S2Compressor) Decompress(dst, src []byte) ([]byte, error) {
	return s2.Decode(dst[:0:cap(dst)], src)
}
