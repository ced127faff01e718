package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionNone     Action = ""
	ActionRegister Action = "register"
	ActionSend     Action = "send"
	ActionReceive  Action = "receive"
)

type Step string

const (
	StepIdle              Step = "idle"
	StepAwaitingPinSetup  Step = "awaiting_pin_setup"
	StepAwaitingEmail     Step = "awaiting_email"
	StepAwaitingPinVerify Step = "awaiting_pin_verify"
	StepAwaitingRecipient Step = "awaiting_recipient"
	StepAwaitingAmount    Step = "awaiting_amount"
)

// State is one step of the conversation. Each variant carries only the
// fields that are meaningful while the user is in that step.
type State interface {
	Step() Step
	isState()
}

type Idle struct{}

type AwaitingPinSetup struct{}

type AwaitingEmail struct{}

type AwaitingPinVerify struct {
	Action Action
}

type AwaitingRecipient struct {
	Wallet string
}

type AwaitingAmount struct {
	Action    Action
	Wallet    string
	Recipient string
}

func (Idle) Step() Step              { return StepIdle }
func (AwaitingPinSetup) Step() Step  { return StepAwaitingPinSetup }
func (AwaitingEmail) Step() Step     { return StepAwaitingEmail }
func (AwaitingPinVerify) Step() Step { return StepAwaitingPinVerify }
func (AwaitingRecipient) Step() Step { return StepAwaitingRecipient }
func (AwaitingAmount) Step() Step    { return StepAwaitingAmount }

func (Idle) isState()              {}
func (AwaitingPinSetup) isState()  {}
func (AwaitingEmail) isState()     {}
func (AwaitingPinVerify) isState() {}
func (AwaitingRecipient) isState() {}
func (AwaitingAmount) isState()    {}

type Session struct {
	UserID    string
	State     State
	UpdatedAt time.Time
}

func NewSession(userID string) *Session {
	return &Session{UserID: userID, State: Idle{}}
}

func (s *Session) current() State {
	if s.State == nil {
		return Idle{}
	}

	return s.State
}

func (s *Session) Step() Step {
	return s.current().Step()
}

func (s *Session) PendingAction() Action {
	switch st := s.current().(type) {
	case AwaitingPinSetup, AwaitingEmail:
		return ActionRegister
	case AwaitingPinVerify:
		return st.Action
	case AwaitingRecipient:
		return ActionSend
	case AwaitingAmount:
		return st.Action
	default:
		return ActionNone
	}
}

func (s *Session) RecipientIdentifier() string {
	if st, ok := s.current().(AwaitingAmount); ok {
		return st.Recipient
	}

	return ""
}

func (s *Session) ResolvedWalletAddress() string {
	switch st := s.current().(type) {
	case AwaitingRecipient:
		return st.Wallet
	case AwaitingAmount:
		return st.Wallet
	default:
		return ""
	}
}

// Reset drops every flow-scoped field by returning to Idle.
func (s *Session) Reset() {
	s.State = Idle{}
}

type sessionJSON struct {
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	Action    Action    `json:"action,omitempty"`
	Wallet    string    `json:"wallet,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	v := sessionJSON{
		UserID:    s.UserID,
		Step:      s.Step(),
		UpdatedAt: s.UpdatedAt,
	}

	switch st := s.current().(type) {
	case AwaitingPinVerify:
		v.Action = st.Action
	case AwaitingRecipient:
		v.Wallet = st.Wallet
	case AwaitingAmount:
		v.Action = st.Action
		v.Wallet = st.Wallet
		v.Recipient = st.Recipient
	}

	return json.Marshal(v)
}

func (s *Session) UnmarshalJSON(b []byte) error {
	var v sessionJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	s.UserID = v.UserID
	s.UpdatedAt = v.UpdatedAt

	switch v.Step {
	case StepIdle, "":
		s.State = Idle{}
	case StepAwaitingPinSetup:
		s.State = AwaitingPinSetup{}
	case StepAwaitingEmail:
		s.State = AwaitingEmail{}
	case StepAwaitingPinVerify:
		s.State = AwaitingPinVerify{Action: v.Action}
	case StepAwaitingRecipient:
		s.State = AwaitingRecipient{Wallet: v.Wallet}
	case StepAwaitingAmount:
		s.State = AwaitingAmount{Action: v.Action, Wallet: v.Wallet, Recipient: v.Recipient}
	default:
		return fmt.Errorf("unknown session step %q", v.Step)
	}

	return nil
}

type SessionStore interface {
	// Find returns the stored session, or a new Idle session when the user
	// has none yet.
	Find(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}
