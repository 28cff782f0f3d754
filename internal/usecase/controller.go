// Package usecase holds the per-chat conversation state machine and the
// flows it drives against the banking gateway.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/integrations/tbank"
	"tbank-bot/internal/session"
	"tbank-bot/internal/telegram"
)

// investProductID is the product behind auto-invest accounts. The gateway
// does not document product ids; this is the invest product in the sandbox.
const investProductID = "101"

// Gateway is the subset of banking operations the controller invokes.
type Gateway interface {
	RequestOTP(ctx context.Context, cred domain.Credentials) error
	Login(ctx context.Context, cred domain.Credentials) error
	CustomerDetails(ctx context.Context, cred domain.Credentials) (domain.CustomerInfo, error)
	CustomerAccounts(ctx context.Context, cred domain.Credentials) ([]domain.Account, error)
	Beneficiaries(ctx context.Context, cred domain.Credentials) ([]domain.Beneficiary, error)
	AddBeneficiary(ctx context.Context, cred domain.Credentials, accountID, description string) error
	CreateAccount(ctx context.Context, cred domain.Credentials, productID string) (string, error)
	Transfer(ctx context.Context, cred domain.Credentials, intent domain.TransferIntent) (domain.TransferReceipt, error)
	MonthlyBalanceTrend(ctx context.Context, cred domain.Credentials) (domain.BalanceTrend, error)
	OnboardCustomer(ctx context.Context, app domain.CustomerApplication) (domain.OnboardResult, error)
}

// ChartRenderer turns a balance trend into PNG bytes.
type ChartRenderer interface {
	Render(ctx context.Context, trend domain.BalanceTrend) ([]byte, error)
}

// Controller decides, for each inbound update, the next prompt and which
// gateway operations to invoke. It holds no conversation state itself;
// everything lives in the session store so any instance can resume a chat.
type Controller struct {
	gateway   Gateway
	store     session.Store
	messenger telegram.Messenger
	charts    ChartRenderer
}

func NewController(g Gateway, s session.Store, m telegram.Messenger, charts ChartRenderer) (*Controller, error) {
	if g == nil {
		return nil, errors.New("usecase: gateway must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if m == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if charts == nil {
		return nil, errors.New("usecase: chart renderer must not be nil")
	}
	return &Controller{gateway: g, store: s, messenger: m, charts: charts}, nil
}

var newReference = func() string {
	return uuid.NewString()
}

// HandleUpdate processes one inbound update. Failures never escape: the
// conversation is resynced to the correct home screen and the user sees a
// generic notice, never raw gateway text.
func (c *Controller) HandleUpdate(ctx context.Context, u telegram.Update) {
	var err error
	if u.IsCallback() {
		err = c.handleCallback(ctx, u)
	} else {
		err = c.handleMessage(ctx, u)
	}
	if err == nil {
		return
	}

	e := categorize("update_failed", err)
	log := slog.With("chat_id", u.ChatID, "code", string(e.Code), "reason", e.Reason)

	notice := "Sorry, we could not complete that."
	switch e.Code {
	case ErrorSessionExpired:
		log.Info("session expired, resyncing")
		notice = "Your session has expired."
	case ErrorInvalidInput:
		log.Info("invalid input, resyncing", "err", e.Err)
		notice = "That input doesn't look right."
	case ErrorGatewayDecode:
		var decodeErr *tbank.DecodeError
		if errors.As(err, &decodeErr) {
			log.Warn("gateway response shape unrecognized", "err", e.Err, "payload", string(decodeErr.Payload))
		} else {
			log.Warn("gateway response shape unrecognized", "err", e.Err)
		}
	default:
		log.Warn("update failed", "err", e.Err)
	}

	c.resync(ctx, u.ChatID, notice)
}

// resync recovers from any failure: discard ephemeral drafts, then render
// whichever home screen matches the chat's durable credentials.
func (c *Controller) resync(ctx context.Context, chatID, notice string) {
	if err := c.store.Delete(ctx, session.Key(chatID, session.TopicState)); err != nil {
		slog.Warn("failed to clear conversation state", "chat_id", chatID, "err", err)
	}
	if err := c.sendHome(ctx, chatID, notice); err != nil {
		slog.Warn("failed to render home screen", "chat_id", chatID, "err", err)
	}
}

func (c *Controller) handleMessage(ctx context.Context, u telegram.Update) error {
	text := strings.TrimSpace(u.Text)
	switch text {
	case "/start":
		if err := c.clearState(ctx, u.ChatID); err != nil {
			return err
		}
		return c.sendHome(ctx, u.ChatID, "")
	case "/help":
		return c.messenger.SendText(ctx, u.ChatID, helpText, nil)
	}

	st, err := c.loadState(ctx, u.ChatID)
	if err != nil {
		var uerr *Error
		if errors.As(err, &uerr) && uerr.Code == ErrorSessionExpired {
			// No action pending: same as Back, resync quietly.
			return c.sendHome(ctx, u.ChatID, "")
		}
		return err
	}

	switch st.Kind {
	case domain.StateAwaitingUsername:
		return c.loginUsername(ctx, u.ChatID, text)
	case domain.StateAwaitingPIN:
		return c.loginPIN(ctx, u.ChatID, st, text)
	case domain.StateAwaitingOTP:
		return c.loginOTP(ctx, u.ChatID, st, text)
	case domain.StateAwaitingAmount:
		return c.transferAmount(ctx, u.ChatID, st, text)
	case domain.StateAwaitingBeneficiaryAccount:
		return c.beneficiaryAccount(ctx, u.ChatID, text)
	case domain.StateAwaitingBeneficiaryDesc:
		return c.beneficiaryDescription(ctx, u.ChatID, st, text)
	case domain.StateSignupUsername, domain.StateSignupGivenName, domain.StateSignupFamilyName,
		domain.StateSignupICNumber, domain.StateSignupDateOfBirth:
		return c.signupStep(ctx, u.ChatID, st, text)
	default:
		// Waiting on a button press; free text resyncs.
		if err := c.clearState(ctx, u.ChatID); err != nil {
			return err
		}
		return c.sendHome(ctx, u.ChatID, "")
	}
}

func (c *Controller) handleCallback(ctx context.Context, u telegram.Update) error {
	data := u.Callback
	switch {
	case data == "Login":
		return c.startLogin(ctx, u)
	case data == "Sign Up":
		return c.startSignup(ctx, u)
	case data == "Cancel" || data == "Back":
		return c.cancel(ctx, u)
	case data == "Logout":
		return c.logout(ctx, u)
	case data == "Accounts":
		return c.showAccounts(ctx, u)
	case data == "Balance Chart":
		return c.sendBalanceChart(ctx, u)
	case data == "Transfer":
		return c.startTransfer(ctx, u)
	case strings.HasPrefix(data, "Transfer To "):
		return c.transferTo(ctx, u, strings.TrimPrefix(data, "Transfer To "))
	case strings.HasPrefix(data, "Transfer From "):
		return c.transferFrom(ctx, u, strings.TrimPrefix(data, "Transfer From "))
	case data == "Confirm":
		return c.confirmTransfer(ctx, u)
	case data == "Add Beneficiary":
		return c.startAddBeneficiary(ctx, u)
	case data == "AutoInvest":
		return c.autoInvestMenu(ctx, u)
	case strings.HasPrefix(data, "Account: "):
		return c.autoInvestTarget(ctx, u, strings.TrimPrefix(data, "Account: "))
	case data == "Create":
		return c.autoInvestCreate(ctx, u)
	case data == "2%" || data == "5%" || data == "10%":
		return c.autoInvestPercentage(ctx, u, data)
	case data == "Remove Account":
		return c.autoInvestRemove(ctx, u)
	case data == "Reselect":
		return c.autoInvestReselect(ctx, u)
	default:
		// Unknown payload, possibly from an old message. Same as Back.
		return c.cancel(ctx, u)
	}
}

// cancel discards ephemeral drafts and returns to the correct home screen.
// Running it twice from the same state is harmless.
func (c *Controller) cancel(ctx context.Context, u telegram.Update) error {
	if err := c.clearState(ctx, u.ChatID); err != nil {
		return err
	}
	// The menu message may already be gone; that is fine.
	_ = c.messenger.DeleteMessage(ctx, u.ChatID, u.MessageID)
	return c.sendHome(ctx, u.ChatID, "")
}

func (c *Controller) logout(ctx context.Context, u telegram.Update) error {
	cred, ok := c.credentials(ctx, u.ChatID)
	if ok {
		if err := c.store.Delete(ctx, session.Key(cred.UserID, session.TopicAutoInvest)); err != nil {
			return newError(ErrorInternal, "session_delete_error", err)
		}
	}
	if err := c.store.Delete(ctx, session.Key(u.ChatID, session.TopicCredentials)); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	if err := c.clearState(ctx, u.ChatID); err != nil {
		return err
	}
	return c.sendHome(ctx, u.ChatID, "You have been logged out.")
}

func (c *Controller) showAccounts(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	accounts, err := c.gateway.CustomerAccounts(ctx, cred)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Your accounts:\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "%s: %s %s\n", a.AccountID, a.Balance.StringFixed(2), a.Currency)
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, b.String(), telegram.Rows(3, telegram.Btn("Back")))
}

func (c *Controller) sendBalanceChart(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	trend, err := c.gateway.MonthlyBalanceTrend(ctx, cred)
	if err != nil {
		return err
	}
	png, err := c.charts.Render(ctx, trend)
	if err != nil {
		return err
	}
	return c.messenger.SendPhoto(ctx, u.ChatID, "Your monthly balance trend", png)
}

// sendHome renders the anonymous or authenticated home screen, chosen by
// the presence of durable credentials, optionally prefixed with a notice.
func (c *Controller) sendHome(ctx context.Context, chatID, notice string) error {
	_, authenticated := c.credentials(ctx, chatID)

	var text string
	var kb telegram.Keyboard
	if authenticated {
		text = "What would you like to do?"
		kb = telegram.Rows(3,
			telegram.Btn("Accounts"),
			telegram.Btn("Transfer"),
			telegram.Btn("Add Beneficiary"),
			telegram.Btn("AutoInvest"),
			telegram.Btn("Balance Chart"),
			telegram.Btn("Logout"),
		)
	} else {
		text = "Welcome to TBank Bot! How can I help you today?"
		kb = telegram.Rows(3, telegram.Btn("Login"), telegram.Btn("Sign Up"))
	}
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return c.messenger.SendText(ctx, chatID, text, kb)
}

const helpText = "I can help you check balances, transfer funds, manage " +
	"beneficiaries and set up auto-invest. Send /start to begin."

// ---- session helpers ----

func (c *Controller) credentials(ctx context.Context, chatID string) (domain.Credentials, bool) {
	raw, err := c.store.Get(ctx, session.Key(chatID, session.TopicCredentials))
	if errors.Is(err, session.ErrNotFound) {
		return domain.Credentials{}, false
	}
	if err != nil {
		slog.Warn("failed to read credentials", "chat_id", chatID, "err", err)
		return domain.Credentials{}, false
	}
	var cred domain.Credentials
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		slog.Warn("stored credentials are malformed", "chat_id", chatID, "err", err)
		return domain.Credentials{}, false
	}
	return cred, true
}

func (c *Controller) requireCredentials(ctx context.Context, chatID string) (domain.Credentials, error) {
	cred, ok := c.credentials(ctx, chatID)
	if !ok {
		return domain.Credentials{}, newError(ErrorSessionExpired, "not_authenticated", nil)
	}
	return cred, nil
}

func (c *Controller) saveCredentials(ctx context.Context, chatID string, cred domain.Credentials) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return newError(ErrorInternal, "encode_credentials", err)
	}
	key := session.Key(chatID, session.TopicCredentials)
	// Replace, never merge: drop any stale prior value first.
	if err := c.store.Delete(ctx, key); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	if err := c.store.Set(ctx, key, string(raw), false); err != nil {
		return newError(ErrorInternal, "session_write_error", err)
	}
	return nil
}

func (c *Controller) loadState(ctx context.Context, chatID string) (domain.State, error) {
	raw, err := c.store.Get(ctx, session.Key(chatID, session.TopicState))
	if errors.Is(err, session.ErrNotFound) {
		return domain.State{}, newError(ErrorSessionExpired, "state_missing", err)
	}
	if err != nil {
		return domain.State{}, newError(ErrorInternal, "session_read_error", err)
	}
	st, err := domain.DecodeState(raw)
	if err != nil {
		// A stale or unknown shape counts as an expired session.
		return domain.State{}, newError(ErrorSessionExpired, "state_malformed", err)
	}
	return st, nil
}

func (c *Controller) saveState(ctx context.Context, chatID string, st domain.State) error {
	raw, err := st.Encode()
	if err != nil {
		return newError(ErrorInternal, "encode_state", err)
	}
	key := session.Key(chatID, session.TopicState)
	if err := c.store.Delete(ctx, key); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	if err := c.store.Set(ctx, key, raw, true); err != nil {
		return newError(ErrorInternal, "session_write_error", err)
	}
	return nil
}

func (c *Controller) clearState(ctx context.Context, chatID string) error {
	if err := c.store.Delete(ctx, session.Key(chatID, session.TopicState)); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	return nil
}

func (c *Controller) loadAutoInvest(ctx context.Context, userID string) (domain.AutoInvestConfig, bool, error) {
	raw, err := c.store.Get(ctx, session.Key(userID, session.TopicAutoInvest))
	if errors.Is(err, session.ErrNotFound) {
		return domain.AutoInvestConfig{}, false, nil
	}
	if err != nil {
		return domain.AutoInvestConfig{}, false, newError(ErrorInternal, "session_read_error", err)
	}
	var cfg domain.AutoInvestConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return domain.AutoInvestConfig{}, false, newError(ErrorInternal, "decode_autoinvest", err)
	}
	return cfg, true, nil
}

func (c *Controller) deleteAutoInvest(ctx context.Context, userID string) error {
	if err := c.store.Delete(ctx, session.Key(userID, session.TopicAutoInvest)); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	return nil
}

func (c *Controller) saveAutoInvest(ctx context.Context, userID string, cfg domain.AutoInvestConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return newError(ErrorInternal, "encode_autoinvest", err)
	}
	key := session.Key(userID, session.TopicAutoInvest)
	if err := c.store.Delete(ctx, key); err != nil {
		return newError(ErrorInternal, "session_delete_error", err)
	}
	if err := c.store.Set(ctx, key, string(raw), false); err != nil {
		return newError(ErrorInternal, "session_write_error", err)
	}
	return nil
}
