package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

type CreationStatus string

const (
	CreationStatusSubmitted CreationStatus = "SUBMITTED"
	CreationStatusFailed    CreationStatus = "FAILED"
)

type FeeMode string

const (
	FeeModeSponsored FeeMode = "sponsored"
	FeeModeDefault   FeeMode = "default"
)

func (m FeeMode) Sponsored() bool {
	return m == FeeModeSponsored
}

type Wallet struct {
	UserID              string         `json:"user_id"`
	Username            string         `json:"username,omitempty"`
	Email               string         `json:"email,omitempty"`
	WalletAddress       string         `json:"wallet_address"`
	PublicKey           string         `json:"public_key"`
	EncryptedPrivateKey string         `json:"-"`
	EncryptionIV        string         `json:"-"`
	EncryptionAuthTag   string         `json:"-"`
	PinHash             string         `json:"-"`
	CreationStatus      CreationStatus `json:"creation_status"`
	GasToken            string         `json:"gas_token,omitempty"`
	FeeMode             FeeMode        `json:"fee_mode"`
	DeployTxHash        string         `json:"deploy_tx_hash,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// WalletDetails is the result of deploying a fresh account. PrivateKey is
// plaintext and must be cleared by the receiver once encrypted.
type WalletDetails struct {
	Address    string
	PublicKey  string
	PrivateKey []byte
	TxHash     string
	Status     CreationStatus
	GasToken   string
	FeeMode    FeeMode
}

// WalletUpdate holds the mutable fields of a wallet; nil fields are left as is.
type WalletUpdate struct {
	Username *string
	Email    *string
}

type WalletStore interface {
	// Create fails with ErrAlreadyRegistered when the user already owns a
	// wallet. A non-empty username is taken away from any other wallet.
	Create(ctx context.Context, wallet *Wallet) error
	Find(ctx context.Context, userID string) (*Wallet, error)
	// FindByUsername matches case-insensitively and fails with
	// ErrAmbiguousUsername when more than one wallet holds the name.
	FindByUsername(ctx context.Context, username string) (*Wallet, error)
	// Update applies the non-nil fields. Setting a username clears it on
	// every other wallet first.
	Update(ctx context.Context, userID string, update WalletUpdate) error
}

type CustodyService interface {
	CreateWallet(ctx context.Context) (*WalletDetails, error)
	RegisterUser(ctx context.Context, userID, pin, username, email string) (string, error)
	VerifyPin(ctx context.Context, userID, pin string) (bool, error)
	DecryptPrivateKey(wallet *Wallet) ([]byte, error)
	UpdateEmail(ctx context.Context, userID, email string) error
	// UpdateUsername records the chat username the user currently has. It is
	// a no-op for users without a wallet.
	UpdateUsername(ctx context.Context, userID, username string) error
	FindByUserID(ctx context.Context, userID string) (*Wallet, error)
}

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidPin reports whether pin is exactly four ASCII digits.
func ValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// NormalizeUsername strips surrounding space and a leading "@".
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

func ValidEmail(email string) bool {
	return govalidator.IsEmail(email)
}
