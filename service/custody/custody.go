package custody

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/keys"
	"github.com/pandodao/gasless-wallet/store"
)

type Config struct {
	// EncryptionKey is the hex encoded 256-bit key protecting private keys at rest.
	EncryptionKey    string `valid:"required,hexadecimal"`
	AccountClassHash string `valid:"required"`
	DeployContract   string `valid:"required"`
	DeployEntrypoint string `valid:"required"`
	FeeMode          core.FeeMode
	GasToken         string
}

func New(
	wallets core.WalletStore,
	paymaster core.PaymasterService,
	scheme core.KeyScheme,
	logger *slog.Logger,
	cfg Config,
) core.CustodyService {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	key, err := hex.DecodeString(strings.TrimPrefix(cfg.EncryptionKey, "0x"))
	if err != nil || len(key) != 32 {
		panic(fmt.Errorf("encryption key must be 32 bytes of hex"))
	}

	return &service{
		wallets:   wallets,
		paymaster: paymaster,
		scheme:    scheme,
		logger:    logger.With("service", "custody"),
		cfg:       cfg,
		key:       key,
	}
}

type service struct {
	wallets   core.WalletStore
	paymaster core.PaymasterService
	scheme    core.KeyScheme
	logger    *slog.Logger
	cfg       Config
	key       []byte
}

func (s *service) CreateWallet(ctx context.Context) (*core.WalletDetails, error) {
	privateKey, err := s.scheme.GenerateKey()
	if err != nil {
		return nil, err
	}

	details, err := s.deploy(ctx, privateKey)
	if err != nil {
		clear(privateKey)
		return nil, err
	}

	return details, nil
}

func (s *service) deploy(ctx context.Context, privateKey []byte) (*core.WalletDetails, error) {
	publicKey, err := s.scheme.PublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	owner, err := keys.PublicKeyFelt(publicKey)
	if err != nil {
		return nil, err
	}

	calldata := keys.AccountConstructor(owner)
	address, err := keys.ContractAddress("0x0", owner, s.cfg.AccountClassHash, calldata)
	if err != nil {
		return nil, err
	}

	fee, err := s.feeDetails(ctx)
	if err != nil {
		return nil, err
	}

	signer, err := s.scheme.NewSigner(address, privateKey)
	if err != nil {
		return nil, err
	}

	defer signer.Zero()

	tx := &core.PaymasterTransaction{
		Account: address,
		Calls: []core.Call{{
			ContractAddress: s.cfg.DeployContract,
			Entrypoint:      s.cfg.DeployEntrypoint,
			Calldata:        []string{address},
		}},
		Deployment: &core.DeploymentData{
			Address:   address,
			ClassHash: s.cfg.AccountClassHash,
			Salt:      owner,
			Calldata:  calldata,
			Version:   1,
		},
		Fee: fee,
	}

	var maxFee *uint256.Int
	if !fee.Mode.Sponsored() {
		estimate, err := s.paymaster.EstimateFee(ctx, tx)
		if err != nil {
			s.logger.Error("paymaster.EstimateFee", "account", address, "err", err)
			return nil, err
		}

		maxFee = estimate.SuggestedMaxFee
	}

	handle, err := s.paymaster.Submit(ctx, tx, signer, maxFee)
	if err != nil {
		s.logger.Error("paymaster.Submit", "account", address, "err", err)
		return nil, err
	}

	s.logger.Info("account deployment submitted", "account", address, "tx", handle.Hash, "mode", fee.Mode)

	return &core.WalletDetails{
		Address:    address,
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		TxHash:     handle.Hash,
		Status:     core.CreationStatusSubmitted,
		GasToken:   fee.GasToken,
		FeeMode:    fee.Mode,
	}, nil
}

func (s *service) feeDetails(ctx context.Context) (core.FeeDetails, error) {
	fee := core.FeeDetails{Mode: s.cfg.FeeMode}
	if fee.Mode == "" {
		fee.Mode = core.FeeModeDefault
	}

	ok, err := s.paymaster.IsAvailable(ctx)
	if err != nil {
		s.logger.Error("paymaster.IsAvailable", "err", err)
		return fee, fmt.Errorf("%w: %w", core.ErrServiceUnavailable, err)
	}

	if !ok {
		return fee, core.ErrPaymasterUnavailable
	}

	tokens, err := s.paymaster.GetSupportedTokens(ctx)
	if err != nil {
		s.logger.Error("paymaster.GetSupportedTokens", "err", err)
		return fee, fmt.Errorf("%w: %w", core.ErrServiceUnavailable, err)
	}

	gasToken := s.cfg.GasToken
	if gasToken == "" && len(tokens) > 0 {
		gasToken = tokens[0].Address
	}

	if fee.Mode.Sponsored() {
		return fee, nil
	}

	if gasToken == "" {
		return fee, fmt.Errorf("%w: %w", core.ErrServiceUnavailable, core.ErrNoSupportedFeeToken)
	}

	fee.GasToken = gasToken
	return fee, nil
}

func (s *service) RegisterUser(ctx context.Context, userID, pin, username, email string) (string, error) {
	if !core.ValidPin(pin) {
		return "PIN must be exactly 4 digits.", fmt.Errorf("%w: pin", core.ErrInvalidInput)
	}

	if _, err := s.wallets.Find(ctx, userID); err == nil {
		return "You already have a wallet.", core.ErrAlreadyRegistered
	} else if !store.IsErrNotFound(err) {
		s.logger.Error("wallets.Find", "user", userID, "err", err)
		return "Wallet lookup failed, please try again later.", err
	}

	details, err := s.CreateWallet(ctx)
	if err != nil {
		s.logger.Error("CreateWallet", "user", userID, "err", err)
		return "Wallet creation failed, please try again later.", err
	}

	defer clear(details.PrivateKey)

	pinHash, err := hashPin(pin)
	if err != nil {
		s.logger.Error("hashPin", "user", userID, "err", err)
		return "Wallet creation failed, please try again later.", err
	}

	box, err := encrypt(s.key, details.PrivateKey)
	if err != nil {
		s.logger.Error("encrypt", "user", userID, "err", err)
		return "Wallet creation failed, please try again later.", err
	}

	wallet := &core.Wallet{
		UserID:              userID,
		Username:            core.NormalizeUsername(username),
		Email:               email,
		WalletAddress:       details.Address,
		PublicKey:           details.PublicKey,
		EncryptedPrivateKey: box.Ciphertext,
		EncryptionIV:        box.IV,
		EncryptionAuthTag:   box.AuthTag,
		PinHash:             pinHash,
		CreationStatus:      details.Status,
		GasToken:            details.GasToken,
		FeeMode:             details.FeeMode,
		DeployTxHash:        details.TxHash,
	}

	if err := s.wallets.Create(ctx, wallet); err != nil {
		if errors.Is(err, core.ErrAlreadyRegistered) {
			return "You already have a wallet.", err
		}

		s.logger.Error("wallets.Create", "user", userID, "err", err)
		return "Wallet creation failed, please try again later.", err
	}

	s.logger.Info("wallet registered", "user", userID, "address", wallet.WalletAddress)

	return fmt.Sprintf("Wallet created!\nAddress: %s\nDeployment tx: %s", wallet.WalletAddress, wallet.DeployTxHash), nil
}

func (s *service) VerifyPin(ctx context.Context, userID, pin string) (bool, error) {
	wallet, err := s.FindByUserID(ctx, userID)
	if err != nil {
		return false, err
	}

	return comparePin(wallet.PinHash, pin)
}

func (s *service) DecryptPrivateKey(wallet *core.Wallet) ([]byte, error) {
	return decrypt(s.key, &sealed{
		Ciphertext: wallet.EncryptedPrivateKey,
		IV:         wallet.EncryptionIV,
		AuthTag:    wallet.EncryptionAuthTag,
	})
}

func (s *service) UpdateEmail(ctx context.Context, userID, email string) error {
	email = strings.TrimSpace(email)
	if !core.ValidEmail(email) {
		return fmt.Errorf("%w: email", core.ErrInvalidInput)
	}

	if err := s.wallets.Update(ctx, userID, core.WalletUpdate{Email: &email}); err != nil {
		s.logger.Error("wallets.Update", "user", userID, "err", err)
		return err
	}

	return nil
}

func (s *service) UpdateUsername(ctx context.Context, userID, username string) error {
	username = core.NormalizeUsername(username)

	wallet, err := s.wallets.Find(ctx, userID)
	if store.IsErrNotFound(err) {
		return nil
	} else if err != nil {
		s.logger.Error("wallets.Find", "user", userID, "err", err)
		return err
	}

	if wallet.Username == username {
		return nil
	}

	if err := s.wallets.Update(ctx, userID, core.WalletUpdate{Username: &username}); err != nil {
		s.logger.Error("wallets.Update", "user", userID, "err", err)
		return err
	}

	s.logger.Info("username updated", "user", userID, "username", username)
	return nil
}

func (s *service) FindByUserID(ctx context.Context, userID string) (*core.Wallet, error) {
	wallet, err := s.wallets.Find(ctx, userID)
	if store.IsErrNotFound(err) {
		return nil, core.ErrNotRegistered
	}

	return wallet, err
}
