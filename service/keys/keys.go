package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pandodao/gasless-wallet/core"
)

type scheme struct{}

// New returns the secp256k1 key scheme used for custodial accounts.
func New() core.KeyScheme {
	return scheme{}
}

func (scheme) GenerateKey() ([]byte, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	defer key.Zero()
	return key.Serialize(), nil
}

// PublicKey returns the compressed public key as 0x-prefixed hex.
func (scheme) PublicKey(privateKey []byte) (string, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return "", fmt.Errorf("private key must be %d bytes, got %d", secp256k1.PrivKeyBytesLen, len(privateKey))
	}

	key := secp256k1.PrivKeyFromBytes(privateKey)
	defer key.Zero()

	return "0x" + hex.EncodeToString(key.PubKey().SerializeCompressed()), nil
}

func (scheme) NewSigner(address string, privateKey []byte) (core.Signer, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", secp256k1.PrivKeyBytesLen, len(privateKey))
	}

	if !core.IsAddress(address) {
		return nil, core.ErrInvalidAddress
	}

	return &signer{
		address: core.NormalizeAddress(address),
		key:     secp256k1.PrivKeyFromBytes(privateKey),
	}, nil
}

// ParsePrivateKey decodes a hex private key as found in configuration.
func ParsePrivateKey(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	if len(b) > secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key too long: %d bytes", len(b))
	}

	key := make([]byte, secp256k1.PrivKeyBytesLen)
	copy(key[secp256k1.PrivKeyBytesLen-len(b):], b)
	clear(b)
	return key, nil
}

type signer struct {
	address string
	key     *secp256k1.PrivateKey
}

func (s *signer) Address() string {
	return s.address
}

// Sign returns the r and s words of a signature over a 32-byte hash.
func (s *signer) Sign(hash []byte) ([]string, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}

	// compact form is recovery byte followed by r and s
	sig := ecdsa.SignCompact(s.key, hash, true)
	return []string{
		"0x" + hex.EncodeToString(sig[1:33]),
		"0x" + hex.EncodeToString(sig[33:65]),
	}, nil
}

func (s *signer) Zero() {
	s.key.Zero()
}
