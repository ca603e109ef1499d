package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/cockroachdb/errors"
)

var (
	// ErrPacketTooShort 表示报文长度不足以容纳 nonce、密文与 MAC。
	ErrPacketTooShort = errors.New("crypto: packet too short")

	// ErrInvalidMAC 表示 HMAC 校验失败，报文被篡改或密钥不匹配。
	ErrInvalidMAC = errors.New("crypto: invalid mac")
)

const aes256KeySize = 32

// AESGCMHMAC 使用 AES-256-GCM 加密，并对 nonce||ciphertext||aad 追加 HMAC-SHA256。
//
// 报文格式：nonce || ciphertext || mac
type AESGCMHMAC struct {
	aead    cipher.AEAD
	hmacKey []byte
}

var _ Encryptor = (*AESGCMHMAC)(nil)

// NewAESGCMHMAC 创建加密器，encKey 必须为 32 字节，macKey 不能为空。
func NewAESGCMHMAC(encKey, macKey []byte) (*AESGCMHMAC, error) {
	if len(encKey) != aes256KeySize {
		return nil, errors.Newf("crypto: encryption key must be %d bytes, got %d", aes256KeySize, len(encKey))
	}
	if len(macKey) == 0 {
		return nil, errors.New("crypto: mac key must not be empty")
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMHMAC{
		aead:    aead,
		hmacKey: append([]byte(nil), macKey...),
	}, nil
}

func (c *AESGCMHMAC) Name() string {
	return NameAESGCMHMAC
}

func (c *AESGCMHMAC) mac(nonce, ciphertext, aad []byte) []byte {
	m := hmac.New(sha256.New, c.hmacKey)
	_, _ = m.Write(nonce)
	_, _ = m.Write(ciphertext)
	_, _ = m.Write(aad)
	return m.Sum(nil)
}

func (c *AESGCMHMAC) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := c.aead.Seal(nil, nonce, plaintext, aad)
	mac := c.mac(nonce, ciphertext, aad)

	packet := make([]byte, 0, len(nonce)+len(ciphertext)+len(mac))
	packet = append(packet, nonce...)
	packet = append(packet, ciphertext...)
	return append(packet, mac...), nil
}

func (c *AESGCMHMAC) Open(packet, aad []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(packet) < nonceSize+c.aead.Overhead()+sha256.Size {
		return nil, ErrPacketTooShort
	}
	macOffset := len(packet) - sha256.Size
	nonce, ciphertext := packet[:nonceSize], packet[nonceSize:macOffset]

	if !hmac.Equal(c.mac(nonce, ciphertext, aad), packet[macOffset:]) {
		return nil, ErrInvalidMAC
	}
	return c.aead.Open(nil, nonce, ciphertext, aad)
}
