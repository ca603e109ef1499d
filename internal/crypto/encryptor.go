package crypto

import (
	"crypto/sha256"
)

// Encryptor 为本地存储的加密方案：Seal 加密并签名，Open 验签并解密。
//
// aad 为关联数据，不加密但受完整性保护。历史存储以记录 ID 作为 aad，
// 使密文不能被挪到另一个键下。
type Encryptor interface {
	Name() string
	Seal(plaintext, aad []byte) (packet []byte, err error)
	Open(packet, aad []byte) (plaintext []byte, err error)
}

const (
	NameNone       = "none"
	NameAESGCMHMAC = "aes-gcm-hmac"
)

// New 由口令构造 Encryptor，口令为空时返回 NopEncryptor。
//
// 加密密钥与签名密钥分别取自带不同前缀的 SHA-256 摘要。
func New(secret string) (Encryptor, error) {
	if secret == "" {
		return NopEncryptor{}, nil
	}
	encKey := sha256.Sum256([]byte("querydesk/enc:" + secret))
	macKey := sha256.Sum256([]byte("querydesk/mac:" + secret))
	return NewAESGCMHMAC(encKey[:], macKey[:])
}

type NopEncryptor struct{}

func (NopEncryptor) Name() string {
	return NameNone
}

func (NopEncryptor) Seal(plaintext, _ []byte) ([]byte, error) {
	return plaintext, nil
}

func (NopEncryptor) Open(packet, _ []byte) ([]byte, error) {
	return packet, nil
}

var _ Encryptor = NopEncryptor{}
