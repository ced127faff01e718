package custody

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pandodao/gasless-wallet/core"
)

const (
	nonceSize = 16
	tagSize   = 16
)

type sealed struct {
	Ciphertext string
	IV         string
	AuthTag    string
}

// encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
func encrypt(key, plaintext []byte) (*sealed, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	out := aead.Seal(nil, nonce, plaintext, nil)
	n := len(out) - tagSize

	return &sealed{
		Ciphertext: hex.EncodeToString(out[:n]),
		IV:         hex.EncodeToString(nonce),
		AuthTag:    hex.EncodeToString(out[n:]),
	}, nil
}

// decrypt opens a sealed value. Any malformed part or failed
// authentication yields core.ErrDecryptionFailed.
func decrypt(key []byte, s *sealed) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDecryptionFailed, err.Error())
	}

	ciphertext, err := hex.DecodeString(s.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext", core.ErrDecryptionFailed)
	}

	nonce, err := hex.DecodeString(s.IV)
	if err != nil || len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: iv", core.ErrDecryptionFailed)
	}

	tag, err := hex.DecodeString(s.AuthTag)
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: auth tag", core.ErrDecryptionFailed)
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication", core.ErrDecryptionFailed)
	}

	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCMWithNonceSize(block, nonceSize)
}
