// Package strcrypt encrypts string literals and produces the C/C++ prelude
// that decrypts them at start-up.
package strcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	mrand "math/rand/v2"

	"gomod.pri/cobf/xerror"
)

const (
	KeySize = 32
	ivSize  = aes.BlockSize
)

// DefaultKey is the built-in key used when none is configured.
const DefaultKey = "default_encryption_key_32_chars_"

var (
	ErrShortCiphertext = errors.New("ciphertext shorter than iv and one block")
	ErrBadPadding      = errors.New("invalid pkcs7 padding")
)

// SeededEntropy returns a reproducible IV source derived from seed. IVs it
// yields are predictable from the seed.
func SeededEntropy(seed uint64) io.Reader {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], seed)
	copy(s[8:], "cobf/strcrypt/iv")
	return mrand.NewChaCha8(s)
}

// NormalizeKey zero-pads or truncates key to 32 bytes.
func NormalizeKey(key []byte) [KeySize]byte {
	var k [KeySize]byte
	copy(k[:], key)
	return k
}

// Cipher is AES-256-CBC with a fresh IV per message. Output framing is
// base64(iv || ciphertext) without line breaks.
type Cipher struct {
	key     [KeySize]byte
	block   cipher.Block
	entropy io.Reader
}

// NewCipher builds a cipher for key. entropy is the IV source; nil selects
// the platform CSPRNG.
func NewCipher(key []byte, entropy io.Reader) (*Cipher, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	k := NormalizeKey(key)
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, xerror.New(xerror.CodeCryptoError, err)
	}
	return &Cipher{key: k, block: block, entropy: entropy}, nil
}

func (c *Cipher) Key() [KeySize]byte {
	return c.key
}

func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	buf := make([]byte, ivSize, ivSize+len(plaintext)+aes.BlockSize)
	if _, err := io.ReadFull(c.entropy, buf[:ivSize]); err != nil {
		return "", xerror.New(xerror.CodeCryptoError, fmt.Errorf("draw iv: %w", err))
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, buf[:ivSize]).CryptBlocks(ct, padded)

	return base64.StdEncoding.EncodeToString(append(buf, ct...)), nil
}

func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	return Decrypt(encoded, c.key[:])
}

// Decrypt reverses Encrypt for any key; it mirrors what the emitted
// _decrypt_str does before unescaping.
func Decrypt(encoded string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, xerror.New(xerror.CodeCryptoError, err)
	}
	if len(raw) < ivSize+aes.BlockSize || (len(raw)-ivSize)%aes.BlockSize != 0 {
		return nil, xerror.New(xerror.CodeCryptoError, ErrShortCiphertext)
	}

	k := NormalizeKey(key)
	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, xerror.New(xerror.CodeCryptoError, err)
	}

	pt := make([]byte, len(raw)-ivSize)
	cipher.NewCBCDecrypter(block, raw[:ivSize]).CryptBlocks(pt, raw[ivSize:])

	out, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return nil, xerror.New(xerror.CodeCryptoError, err)
	}
	return out, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrBadPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrBadPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrBadPadding
		}
	}
	return b[:len(b)-n], nil
}
