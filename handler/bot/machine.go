package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pandodao/gasless-wallet/core"
)

// Machine runs one chat event through the user's session state. It is not
// safe to run two events of the same user at once; Dispatcher serializes
// them.
type Machine struct {
	sessions  core.SessionStore
	payments  core.PaymentService
	messenger core.Messenger
	logger    *slog.Logger
}

func New(
	sessions core.SessionStore,
	payments core.PaymentService,
	messenger core.Messenger,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		sessions:  sessions,
		payments:  payments,
		messenger: messenger,
		logger:    logger.With("handler", "bot"),
	}
}

type reply struct {
	text string
	menu core.Menu
}

func (m *Machine) Handle(ctx context.Context, ev *core.Event) error {
	session, err := m.sessions.Find(ctx, ev.UserID)
	if err != nil {
		m.logger.Error("sessions.Find", "user", ev.UserID, "err", err)
		_ = m.send(ctx, ev.UserID, reply{text: textFailure})
		return err
	}

	if err := m.payments.SyncUsername(ctx, ev.UserID, ev.Username); err != nil {
		m.logger.Error("payments.SyncUsername", "user", ev.UserID, "err", err)
	}

	var r reply
	switch ev.Kind {
	case core.EventStart:
		session.Reset()
		r = reply{text: textWelcome, menu: startMenu}
	case core.EventMenu:
		r = m.onMenu(ctx, session, ev)
	case core.EventText:
		r = m.onText(ctx, session, ev)
	default:
		r = reply{text: textUseMenu, menu: mainMenu}
	}

	if err := m.sessions.Save(ctx, session); err != nil {
		m.logger.Error("sessions.Save", "user", ev.UserID, "err", err)
	}

	return m.send(ctx, ev.UserID, r)
}

func (m *Machine) send(ctx context.Context, userID string, r reply) error {
	if err := m.messenger.Send(ctx, &core.Message{UserID: userID, Text: r.text, Menu: r.menu}); err != nil {
		m.logger.Error("messenger.Send", "user", userID, "err", err)
		return err
	}

	return nil
}

func (m *Machine) onMenu(ctx context.Context, s *core.Session, ev *core.Event) reply {
	// a menu action abandons whatever flow was in progress
	s.Reset()

	switch ev.Payload {
	case tagShowMenu:
		return reply{text: textChooseOption, menu: mainMenu}
	case tagCancel:
		return reply{text: textCancelled, menu: mainMenu}
	case tagRegister:
		registered, err := m.payments.IsRegistered(ctx, ev.UserID)
		if err != nil {
			return reply{text: textFailure, menu: mainMenu}
		}

		if registered {
			return reply{text: textAlreadyExists, menu: mainMenu}
		}

		s.State = core.AwaitingPinSetup{}
		return reply{text: textAskNewPin, menu: cancelMenu}
	case tagSend:
		s.State = core.AwaitingPinVerify{Action: core.ActionSend}
		return reply{text: textAskPin, menu: cancelMenu}
	case tagReceive:
		s.State = core.AwaitingPinVerify{Action: core.ActionReceive}
		return reply{text: textAskPin, menu: cancelMenu}
	case tagBalance:
		text, _ := m.payments.Balance(ctx, ev.UserID)
		return reply{text: text, menu: mainMenu}
	case tagHistory:
		text, _ := m.payments.History(ctx, ev.UserID)
		return reply{text: text, menu: mainMenu}
	default:
		return reply{text: textUseMenu, menu: mainMenu}
	}
}

func (m *Machine) onText(ctx context.Context, s *core.Session, ev *core.Event) reply {
	text := strings.TrimSpace(ev.Payload)

	switch st := s.State.(type) {
	case core.AwaitingPinSetup:
		return m.onPinSetup(ctx, s, ev, text)
	case core.AwaitingEmail:
		return m.onEmail(ctx, s, ev, text)
	case core.AwaitingPinVerify:
		return m.onPinVerify(ctx, s, ev, st, text)
	case core.AwaitingRecipient:
		if text == "" {
			return reply{text: textAskRecipient, menu: cancelMenu}
		}

		s.State = core.AwaitingAmount{Action: core.ActionSend, Wallet: st.Wallet, Recipient: text}
		return reply{text: textAskSendAmount, menu: cancelMenu}
	case core.AwaitingAmount:
		return m.onAmount(ctx, s, ev, st, text)
	default:
		return reply{text: textUseMenu, menu: mainMenu}
	}
}

func (m *Machine) onPinSetup(ctx context.Context, s *core.Session, ev *core.Event, pin string) reply {
	if !core.ValidPin(pin) {
		return reply{text: textBadNewPin, menu: cancelMenu}
	}

	result, err := m.payments.Register(ctx, ev.UserID, ev.Username, pin)
	if err != nil {
		s.Reset()
		return reply{text: result, menu: mainMenu}
	}

	s.State = core.AwaitingEmail{}
	return reply{text: result + "\n\n" + textAskEmail}
}

func (m *Machine) onEmail(ctx context.Context, s *core.Session, ev *core.Event, email string) reply {
	if !core.ValidEmail(email) {
		return reply{text: textBadEmail}
	}

	result, err := m.payments.UpdateEmail(ctx, ev.UserID, email)
	if err != nil && core.IsValidationErr(err) {
		return reply{text: result}
	}

	s.Reset()
	return reply{text: result, menu: mainMenu}
}

func (m *Machine) onPinVerify(ctx context.Context, s *core.Session, ev *core.Event, st core.AwaitingPinVerify, pin string) reply {
	if !core.ValidPin(pin) {
		return reply{text: textIncorrectPin, menu: cancelMenu}
	}

	wallet, err := m.payments.VerifyPin(ctx, ev.UserID, pin)
	switch {
	case errors.Is(err, core.ErrIncorrectPin):
		return reply{text: textIncorrectPin, menu: cancelMenu}
	case errors.Is(err, core.ErrNotRegistered):
		s.Reset()
		return reply{text: textNoWallet, menu: mainMenu}
	case err != nil:
		s.Reset()
		return reply{text: textFailure, menu: mainMenu}
	}

	if st.Action == core.ActionReceive {
		s.State = core.AwaitingAmount{Action: core.ActionReceive, Wallet: wallet}
		return reply{text: textAskRecvAmount, menu: cancelMenu}
	}

	s.State = core.AwaitingRecipient{Wallet: wallet}
	return reply{text: textAskRecipient, menu: cancelMenu}
}

func (m *Machine) onAmount(ctx context.Context, s *core.Session, ev *core.Event, st core.AwaitingAmount, amount string) reply {
	if _, err := core.ScaleAmount(amount); err != nil {
		return reply{text: textBadAmount, menu: cancelMenu}
	}

	// the flow ends here whatever the outcome
	s.Reset()

	var result string
	switch st.Action {
	case core.ActionSend:
		result, _ = m.payments.Send(ctx, ev.UserID, st.Wallet, st.Recipient, amount)
	case core.ActionReceive:
		result, _ = m.payments.Receive(ctx, ev.UserID, st.Wallet, amount)
	default:
		result = textUseMenu
	}

	return reply{text: result, menu: mainMenu}
}
