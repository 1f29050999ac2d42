package source

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	formatVersion    = "v1"
	saltLen          = 32
	ivLen            = 12
	pbkdf2Iterations = 75000
	keyLen           = 32
)

// IsEncrypted reports whether text uses the v1 envelope.
func IsEncrypted(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), formatVersion+":")
}

// Encrypt seals plaintext as v1:salt:iv:ciphertext, all base64.
func Encrypt(plaintext, password string) (string, error) {
	if password == "" || plaintext == "" {
		return "", errors.New("password and plaintext must be non-empty")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("iv: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}
	ct := gcm.Seal(nil, iv, []byte(plaintext), additionalData(salt, iv))

	enc := base64.StdEncoding
	return strings.Join([]string{
		formatVersion,
		enc.EncodeToString(salt),
		enc.EncodeToString(iv),
		enc.EncodeToString(ct),
	}, ":"), nil
}

// Decrypt opens a v1 envelope. Every failure wraps ErrDecryption.
func Decrypt(payload, password string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(payload), ":", 4)
	if len(parts) != 4 || parts[0] != formatVersion {
		return "", fmt.Errorf("bad envelope: %w", ErrDecryption)
	}
	enc := base64.StdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil || len(salt) != saltLen {
		return "", fmt.Errorf("bad salt: %w", ErrDecryption)
	}
	iv, err := enc.DecodeString(parts[2])
	if err != nil || len(iv) != ivLen {
		return "", fmt.Errorf("bad iv: %w", ErrDecryption)
	}
	ct, err := enc.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("bad ciphertext: %w", ErrDecryption)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, iv, ct, additionalData(salt, iv))
	if err != nil {
		return "", fmt.Errorf("open: %w", ErrDecryption)
	}
	return string(plain), nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

func additionalData(salt, iv []byte) []byte {
	aad := make([]byte, 0, len(formatVersion)+len(salt)+len(iv))
	aad = append(aad, formatVersion...)
	aad = append(aad, salt...)
	return append(aad, iv...)
}
