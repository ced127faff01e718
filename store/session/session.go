package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/store"
	"github.com/tsenart/nap"
)

type sessionStore struct {
	db *nap.DB
}

// New returns a session store backed by the sessions table. Each session is
// kept as one JSON document keyed by user id.
func New(db *nap.DB) core.SessionStore {
	return &sessionStore{db: db}
}

func (s *sessionStore) Find(ctx context.Context, userID string) (*core.Session, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT state FROM sessions WHERE user_id = $1", userID).Scan(&raw)
	if store.IsErrNotFound(err) {
		return core.NewSession(userID), nil
	} else if err != nil {
		return nil, err
	}

	var session core.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.UserID = userID
	return &session, nil
}

func (s *sessionStore) Save(ctx context.Context, session *core.Session) error {
	if session.UserID == "" {
		return errors.New("session without user id")
	}

	session.UpdatedAt = time.Now()
	value, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	r, err := s.db.ExecContext(ctx, "UPDATE sessions SET state = $1, version = version + 1, updated_at = $2 WHERE user_id = $3", value, session.UpdatedAt, session.UserID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO sessions (user_id, state, updated_at) VALUES ($1, $2, $3)", session.UserID, value, session.UpdatedAt)
	return err
}
