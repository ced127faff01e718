package bot

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/gasless-wallet/service/custody"
	"github.com/pandodao/gasless-wallet/service/keys"
	"github.com/pandodao/gasless-wallet/service/payment"
	"github.com/pandodao/gasless-wallet/service/starknet/starknettest"
	"github.com/pandodao/gasless-wallet/service/transaction"
	"github.com/pandodao/gasless-wallet/store/session"
	"github.com/pandodao/gasless-wallet/store/transfer"
	"github.com/pandodao/gasless-wallet/store/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "0x0773ec0c0bb16014f733888610c5c19123b6d5e3615ea26208e7c90b0b5cddb2"

type inbox struct {
	mux      sync.Mutex
	messages []*core.Message
}

func (b *inbox) Send(_ context.Context, msg *core.Message) error {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.messages = append(b.messages, msg)
	return nil
}

func (b *inbox) last() *core.Message {
	b.mux.Lock()
	defer b.mux.Unlock()

	return b.messages[len(b.messages)-1]
}

type fixture struct {
	machine   *Machine
	sessions  core.SessionStore
	wallets   core.WalletStore
	paymaster *starknettest.Paymaster
	inbox     *inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheme := keys.New()

	poolKey, err := scheme.GenerateKey()
	require.NoError(t, err)
	pool, err := scheme.NewSigner("0x9001", poolKey)
	require.NoError(t, err)

	f := &fixture{
		sessions:  session.NewMemory(64),
		wallets:   wallet.NewMemory(),
		paymaster: starknettest.NewPaymaster(),
		inbox:     &inbox{},
	}

	cust := custody.New(f.wallets, f.paymaster, scheme, logger, custody.Config{
		EncryptionKey:    hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		AccountClassHash: "0x36078334509b514626504edc9fb252328d1a240e4e948bef8d0c08dff45927f",
		DeployContract:   "0x2",
		DeployEntrypoint: "get_counter",
		FeeMode:          core.FeeModeSponsored,
	})

	txs := transaction.New(starknettest.NewNode(), f.paymaster, scheme, pool, nil, logger, transaction.Config{
		TokenAddress: token,
		FeeMode:      core.FeeModeDefault,
	})

	payments := payment.New(cust, txs, f.wallets, transfer.NewMemory(), logger, payment.Config{})
	f.machine = New(f.sessions, payments, f.inbox, logger)
	return f
}

func (f *fixture) menu(t *testing.T, userID, tag string) *core.Message {
	t.Helper()
	require.NoError(t, f.machine.Handle(context.Background(), &core.Event{UserID: userID, Username: "user" + userID, Kind: core.EventMenu, Payload: tag}))
	return f.inbox.last()
}

func (f *fixture) text(t *testing.T, userID, text string) *core.Message {
	t.Helper()
	require.NoError(t, f.machine.Handle(context.Background(), &core.Event{UserID: userID, Username: "user" + userID, Kind: core.EventText, Payload: text}))
	return f.inbox.last()
}

func (f *fixture) session(t *testing.T, userID string) *core.Session {
	t.Helper()
	s, err := f.sessions.Find(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// recipient with a known username
	require.NoError(t, f.wallets.Create(ctx, &core.Wallet{UserID: "99", Username: "bob", WalletAddress: "0xb0b"}))

	// (1) register with no existing record
	msg := f.menu(t, "1", tagRegister)
	assert.Equal(t, textAskNewPin, msg.Text)
	assert.Equal(t, core.StepAwaitingPinSetup, f.session(t, "1").Step())

	// (2) PIN creates the record
	msg = f.text(t, "1", "4821")
	assert.Contains(t, msg.Text, "Wallet created")
	assert.Equal(t, core.StepAwaitingEmail, f.session(t, "1").Step())

	record, err := f.wallets.Find(ctx, "1")
	require.NoError(t, err)
	assert.NotEmpty(t, record.PinHash)
	assert.NotEqual(t, "4821", record.PinHash)

	// (3) malformed email is rejected
	msg = f.text(t, "1", "not-an-email")
	assert.Equal(t, textBadEmail, msg.Text)
	assert.Equal(t, core.StepAwaitingEmail, f.session(t, "1").Step())

	// (4) valid email is stored
	f.text(t, "1", "a@b.com")
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())
	record, _ = f.wallets.Find(ctx, "1")
	assert.Equal(t, "a@b.com", record.Email)

	// (5) send asks for the PIN, a wrong one reprompts
	f.menu(t, "1", tagSend)
	assert.Equal(t, core.AwaitingPinVerify{Action: core.ActionSend}, f.session(t, "1").State)

	msg = f.text(t, "1", "1111")
	assert.Equal(t, textIncorrectPin, msg.Text)
	assert.Equal(t, core.AwaitingPinVerify{Action: core.ActionSend}, f.session(t, "1").State)

	msg = f.text(t, "1", "4821")
	assert.Equal(t, textAskRecipient, msg.Text)
	assert.Equal(t, core.AwaitingRecipient{Wallet: record.WalletAddress}, f.session(t, "1").State)

	// (6) recipient and amount submit the transfer
	f.text(t, "1", "bob")
	assert.Equal(t, "bob", f.session(t, "1").RecipientIdentifier())

	submitted := f.paymaster.SubmittedCount()
	msg = f.text(t, "1", "10")

	require.Equal(t, submitted+1, f.paymaster.SubmittedCount())
	tx := f.paymaster.Submitted[submitted]
	assert.Equal(t, []string{"0xb0b", "0x989680", "0x0"}, tx.Calls[0].Calldata)

	assert.Contains(t, msg.Text, "Tx: 0x")
	assert.Equal(t, mainMenu, msg.Menu)
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())
}

func TestSessionFieldsClearedAfterSend(t *testing.T) {
	f := newFixture(t)

	f.menu(t, "1", tagRegister)
	f.text(t, "1", "4821")
	f.text(t, "1", "a@b.com")

	// a failing send still resets the flow
	f.menu(t, "1", tagSend)
	f.text(t, "1", "4821")
	f.text(t, "1", "nobody-here")
	msg := f.text(t, "1", "5")
	assert.Contains(t, msg.Text, "Recipient not found")

	s := f.session(t, "1")
	assert.Equal(t, core.StepIdle, s.Step())
	assert.Empty(t, s.RecipientIdentifier())
	assert.Empty(t, s.ResolvedWalletAddress())

	f.menu(t, "1", tagReceive)
	f.text(t, "1", "4821")

	s = f.session(t, "1")
	assert.Equal(t, core.StepAwaitingAmount, s.Step())
	assert.Equal(t, core.ActionReceive, s.PendingAction())
	assert.Empty(t, s.RecipientIdentifier())
}

func TestRegisterTwice(t *testing.T) {
	f := newFixture(t)

	f.menu(t, "1", tagRegister)
	f.text(t, "1", "4821")

	msg := f.menu(t, "1", tagRegister)
	assert.Equal(t, textAlreadyExists, msg.Text)
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())
}

func TestEventsRefreshUsername(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.menu(t, "1", tagRegister)
	f.text(t, "1", "4821")
	f.menu(t, "2", tagRegister)
	f.text(t, "2", "4821")

	w, err := f.wallets.FindByUsername(ctx, "@user1")
	require.NoError(t, err)
	assert.Equal(t, "1", w.UserID)

	// user 2 renames to the name user 1 used to have
	require.NoError(t, f.machine.Handle(ctx, &core.Event{UserID: "2", Username: "user1", Kind: core.EventMenu, Payload: tagShowMenu}))

	w, err = f.wallets.FindByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "2", w.UserID)

	old, err := f.wallets.Find(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, old.Username)
}

func TestPinSetupValidation(t *testing.T) {
	f := newFixture(t)

	f.menu(t, "1", tagRegister)
	for _, bad := range []string{"12", "abcd", "12345", ""} {
		msg := f.text(t, "1", bad)
		assert.Equal(t, textBadNewPin, msg.Text)
		assert.Equal(t, core.StepAwaitingPinSetup, f.session(t, "1").Step())
	}
}

func TestRegistrationFailureReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.paymaster.Available = false

	f.menu(t, "1", tagRegister)
	msg := f.text(t, "1", "4821")
	assert.Contains(t, msg.Text, "failed")
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())

	_, err := f.wallets.Find(context.Background(), "1")
	assert.Error(t, err)
}

func TestSendWithoutWallet(t *testing.T) {
	f := newFixture(t)

	f.menu(t, "1", tagSend)
	msg := f.text(t, "1", "1234")
	assert.Equal(t, textNoWallet, msg.Text)
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())
}

func TestAmountValidation(t *testing.T) {
	f := newFixture(t)

	f.menu(t, "1", tagRegister)
	f.text(t, "1", "4821")
	f.text(t, "1", "a@b.com")
	f.menu(t, "1", tagReceive)
	f.text(t, "1", "4821")

	for _, bad := range []string{"0", "-3", "1.5", "ten"} {
		msg := f.text(t, "1", bad)
		assert.Equal(t, textBadAmount, msg.Text)
		assert.Equal(t, core.StepAwaitingAmount, f.session(t, "1").Step())
	}

	msg := f.text(t, "1", "7")
	assert.Contains(t, msg.Text, "Deposit submitted")
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())
}

func TestIdleTextAndCancel(t *testing.T) {
	f := newFixture(t)

	msg := f.text(t, "1", "hello")
	assert.Equal(t, textUseMenu, msg.Text)
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())

	f.menu(t, "1", tagSend)
	msg = f.menu(t, "1", tagCancel)
	assert.Equal(t, textCancelled, msg.Text)
	assert.Equal(t, core.StepIdle, f.session(t, "1").Step())

	require.NoError(t, f.machine.Handle(context.Background(), &core.Event{UserID: "1", Kind: core.EventStart}))
	assert.Equal(t, startMenu, f.inbox.last().Menu)
}

type orderRecorder struct {
	mux    sync.Mutex
	active map[string]bool
	seen   map[string][]string
	t      *testing.T
}

func (r *orderRecorder) Handle(_ context.Context, ev *core.Event) error {
	r.mux.Lock()
	if r.active[ev.UserID] {
		r.t.Errorf("user %s handled concurrently", ev.UserID)
	}
	r.active[ev.UserID] = true
	r.mux.Unlock()

	r.mux.Lock()
	r.seen[ev.UserID] = append(r.seen[ev.UserID], ev.Payload)
	r.active[ev.UserID] = false
	r.mux.Unlock()
	return nil
}

func TestDispatcherOrdering(t *testing.T) {
	rec := &orderRecorder{active: map[string]bool{}, seen: map[string][]string{}, t: t}
	d := NewDispatcher(rec, &inbox{}, slog.New(slog.NewTextHandler(io.Discard, nil)), DispatcherConfig{QueueLimit: 1000})

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		for _, user := range []string{"a", "b", "c"} {
			d.Dispatch(ctx, &core.Event{UserID: user, Kind: core.EventText, Payload: fmt.Sprint(i)})
		}
	}

	d.Wait()

	for _, user := range []string{"a", "b", "c"} {
		require.Len(t, rec.seen[user], 100)
		for i, p := range rec.seen[user] {
			assert.Equal(t, fmt.Sprint(i), p)
		}
	}

	assert.Empty(t, d.queues)
}

type gatedHandler struct {
	started chan struct{}
	release chan struct{}

	mux     sync.Mutex
	handled []string
}

func (h *gatedHandler) Handle(_ context.Context, ev *core.Event) error {
	h.mux.Lock()
	first := len(h.handled) == 0
	h.handled = append(h.handled, ev.Payload)
	h.mux.Unlock()

	if first {
		close(h.started)
		<-h.release
	}

	return nil
}

func TestDispatcherQueueLimit(t *testing.T) {
	h := &gatedHandler{started: make(chan struct{}), release: make(chan struct{})}
	box := &inbox{}
	d := NewDispatcher(h, box, slog.New(slog.NewTextHandler(io.Discard, nil)), DispatcherConfig{QueueLimit: 2})

	ctx := context.Background()
	d.Dispatch(ctx, &core.Event{UserID: "1", Kind: core.EventText, Payload: "0"})
	<-h.started

	// two fit behind the one in progress, the rest are dropped
	for i := 1; i <= 5; i++ {
		d.Dispatch(ctx, &core.Event{UserID: "1", Kind: core.EventText, Payload: fmt.Sprint(i)})
	}

	close(h.release)
	d.Wait()

	assert.Equal(t, []string{"0", "1", "2"}, h.handled)
	require.Len(t, box.messages, 1)
	assert.Equal(t, textBusy, box.messages[0].Text)
	assert.Equal(t, "1", box.messages[0].UserID)

	// the backlog is gone, so new events are accepted again
	d.Dispatch(ctx, &core.Event{UserID: "1", Kind: core.EventText, Payload: "6"})
	d.Wait()
	assert.Equal(t, []string{"0", "1", "2", "6"}, h.handled)
}
