package compressor

import (
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Compressor 抽象了“单次压缩/解压”能力。
//
// 用于历史记录等持久化数据块的压缩，不处理流式场景。
type Compressor interface {
	// Name 返回算法名称，用于配置与存储元数据。
	Name() string

	// Compress 将 src 压缩到 dst。
	//
	// dst 一般可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量；
	// 返回值 packet 为压缩后的完整数据。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将压缩数据 src 解压到 dst。
	//
	// 行为约定与 Compress 对称：src 必须是 Compress 的输出。
	Decompress(dst, src []byte) (plain []byte, err error)
}

const (
	NameNone = "none"
	NameZstd = "zstd"
	NameS2   = "s2"
)

// New 按名称创建 Compressor，名称为空时不压缩。
func New(name string) (Compressor, error) {
	switch name {
	case "", NameNone:
		return NopCompressor{}, nil
	case NameZstd:
		c, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		return c, nil
	case NameS2:
		return S2Compressor{}, nil
	}
	return nil, merr.WrapErrParameterInvalidMsg("unknown compressor %q", name)
}

// NopCompressor 是一个空实现：不做任何压缩/解压，直接返回输入内容。
type NopCompressor struct{}

func (NopCompressor) Name() string {
	return NameNone
}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

// 编译期断言：确保 NopCompressor 实现了 Compressor 接口。
var _ Compressor = NopCompressor{}
