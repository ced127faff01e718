package wallet

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/store"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.WalletStore {
	wallets, err := lru.New[string, *core.Wallet](256)
	if err != nil {
		panic(err)
	}

	return &walletStore{
		db:      db,
		wallets: wallets,
	}
}

type walletStore struct {
	db      *nap.DB
	wallets *lru.Cache[string, *core.Wallet]
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{
	"user_id",
	"username",
	"email",
	"wallet_address",
	"public_key",
	"encrypted_private_key",
	"encryption_iv",
	"encryption_auth_tag",
	"pin_hash",
	"creation_status",
	"gas_token",
	"fee_mode",
	"deploy_tx_hash",
	"created_at",
	"updated_at",
}

func (s *walletStore) Create(ctx context.Context, wallet *core.Wallet) error {
	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now
	wallet.Username = core.NormalizeUsername(wallet.Username)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := s.releaseUsername(ctx, tx, wallet.UserID, wallet.Username); err != nil {
		return err
	}

	b := psql.Insert("wallets").
		Columns(columns...).
		Values(
			wallet.UserID,
			wallet.Username,
			wallet.Email,
			wallet.WalletAddress,
			wallet.PublicKey,
			wallet.EncryptedPrivateKey,
			wallet.EncryptionIV,
			wallet.EncryptionAuthTag,
			wallet.PinHash,
			wallet.CreationStatus,
			wallet.GasToken,
			wallet.FeeMode,
			wallet.DeployTxHash,
			wallet.CreatedAt,
			wallet.UpdatedAt,
		)

	if _, err := b.RunWith(tx).ExecContext(ctx); err != nil {
		if store.IsErrDuplicate(err, "wallets_pkey") {
			return core.ErrAlreadyRegistered
		}

		return err
	}

	return tx.Commit()
}

// releaseUsername clears username on every wallet except the one of userID.
func (s *walletStore) releaseUsername(ctx context.Context, tx sq.BaseRunner, userID, username string) error {
	if username == "" {
		return nil
	}

	b := psql.Update("wallets").
		Set("username", "").
		Set("updated_at", time.Now()).
		Where(sq.Expr("LOWER(username) = LOWER(?)", username)).
		Where(sq.NotEq{"user_id": userID})

	result, err := b.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return err
	}

	if n, _ := result.RowsAffected(); n > 0 {
		s.wallets.Purge()
	}

	return nil
}

func (s *walletStore) Find(ctx context.Context, userID string) (*core.Wallet, error) {
	if w, ok := s.wallets.Get(userID); ok {
		return w, nil
	}

	w, err := s.findBy(ctx, sq.Eq{"user_id": userID})
	if err != nil {
		return nil, err
	}

	s.wallets.Add(userID, w)
	return w, nil
}

func (s *walletStore) FindByUsername(ctx context.Context, username string) (*core.Wallet, error) {
	username = core.NormalizeUsername(username)
	if username == "" {
		return nil, sql.ErrNoRows
	}

	b := psql.Select(columns...).
		From("wallets").
		Where(sq.Expr("LOWER(username) = LOWER(?)", username)).
		Limit(2)

	rows, err := b.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var wallets []*core.Wallet
	for rows.Next() {
		var wallet core.Wallet
		if err := scanWallet(rows, &wallet); err != nil {
			return nil, err
		}

		wallets = append(wallets, &wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(wallets) {
	case 0:
		return nil, sql.ErrNoRows
	case 1:
		return wallets[0], nil
	default:
		return nil, core.ErrAmbiguousUsername
	}
}

func (s *walletStore) Update(ctx context.Context, userID string, update core.WalletUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	b := psql.Update("wallets").
		Set("updated_at", time.Now()).
		Where(sq.Eq{"user_id": userID})

	if update.Username != nil {
		username := core.NormalizeUsername(*update.Username)
		if err := s.releaseUsername(ctx, tx, userID, username); err != nil {
			return err
		}

		b = b.Set("username", username)
	}

	if update.Email != nil {
		b = b.Set("email", *update.Email)
	}

	defer s.wallets.Remove(userID)

	result, err := b.RunWith(tx).ExecContext(ctx)
	if err != nil {
		return err
	}

	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

func (s *walletStore) findBy(ctx context.Context, pred any) (*core.Wallet, error) {
	b := psql.Select(columns...).From("wallets").Where(pred).Limit(1)
	row := b.RunWith(s.db).QueryRowContext(ctx)

	var wallet core.Wallet
	if err := scanWallet(row, &wallet); err != nil {
		return nil, err
	}

	return &wallet, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWallet(row scanner, wallet *core.Wallet) error {
	return row.Scan(
		&wallet.UserID,
		&wallet.Username,
		&wallet.Email,
		&wallet.WalletAddress,
		&wallet.PublicKey,
		&wallet.EncryptedPrivateKey,
		&wallet.EncryptionIV,
		&wallet.EncryptionAuthTag,
		&wallet.PinHash,
		&wallet.CreationStatus,
		&wallet.GasToken,
		&wallet.FeeMode,
		&wallet.DeployTxHash,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
}
