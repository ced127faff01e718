package core

import "context"

// PaymentService drives wallet custody and the transaction engine on behalf
// of a chat user. Replies are short texts fit to show the user; errors keep
// the full cause for classification and logging.
type PaymentService interface {
	IsRegistered(ctx context.Context, userID string) (bool, error)
	Register(ctx context.Context, userID, username, pin string) (string, error)
	UpdateEmail(ctx context.Context, userID, email string) (string, error)
	// VerifyPin returns the user's wallet address when pin matches, and
	// ErrIncorrectPin when it does not.
	VerifyPin(ctx context.Context, userID, pin string) (string, error)
	Send(ctx context.Context, userID, wallet, recipient, amount string) (string, error)
	Receive(ctx context.Context, userID, wallet, amount string) (string, error)
	// SyncUsername keeps the stored username in step with the chat one so
	// that @username recipients resolve to whoever holds the name now.
	SyncUsername(ctx context.Context, userID, username string) error
	Balance(ctx context.Context, userID string) (string, error)
	History(ctx context.Context, userID string) (string, error)
}
