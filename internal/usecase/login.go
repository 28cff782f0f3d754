package usecase

import (
	"context"
	"fmt"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/telegram"
)

var cancelKeyboard = telegram.Rows(3, telegram.Btn("Cancel"))

func (c *Controller) startLogin(ctx context.Context, u telegram.Update) error {
	st := domain.State{Kind: domain.StateAwaitingUsername}
	if err := c.saveState(ctx, u.ChatID, st); err != nil {
		return err
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, "Please key in your username", cancelKeyboard)
}

func (c *Controller) loginUsername(ctx context.Context, chatID, username string) error {
	if username == "" {
		return newError(ErrorInvalidInput, "empty_username", nil)
	}
	st := domain.State{
		Kind:  domain.StateAwaitingPIN,
		Login: &domain.LoginStep{Username: username},
	}
	if err := c.saveState(ctx, chatID, st); err != nil {
		return err
	}
	return c.messenger.SendText(ctx, chatID, "Please key in your PIN", cancelKeyboard)
}

func (c *Controller) loginPIN(ctx context.Context, chatID string, st domain.State, pin string) error {
	if st.Login == nil {
		return newError(ErrorSessionExpired, "login_step_missing", nil)
	}
	if pin == "" {
		return newError(ErrorInvalidInput, "empty_pin", nil)
	}

	cred := domain.Credentials{UserID: st.Login.Username, PIN: pin}
	if err := c.gateway.RequestOTP(ctx, cred); err != nil {
		return err
	}

	next := domain.State{
		Kind:  domain.StateAwaitingOTP,
		Login: &domain.LoginStep{Username: st.Login.Username, PIN: pin},
	}
	if err := c.saveState(ctx, chatID, next); err != nil {
		return err
	}
	return c.messenger.SendText(ctx, chatID, "An OTP has been sent to you. Please key it in", cancelKeyboard)
}

func (c *Controller) loginOTP(ctx context.Context, chatID string, st domain.State, otp string) error {
	if st.Login == nil {
		return newError(ErrorSessionExpired, "login_step_missing", nil)
	}
	if otp == "" {
		return newError(ErrorInvalidInput, "empty_otp", nil)
	}

	cred := domain.Credentials{
		ServiceName: "loginCustomer",
		UserID:      st.Login.Username,
		PIN:         st.Login.PIN,
		OTP:         otp,
	}
	if err := c.gateway.Login(ctx, cred); err != nil {
		return err
	}

	if err := c.saveCredentials(ctx, chatID, cred); err != nil {
		return err
	}
	if err := c.clearState(ctx, chatID); err != nil {
		return err
	}

	// Greeting is best-effort; a failed details call must not undo a
	// successful login.
	notice := "You are logged in."
	if info, err := c.gateway.CustomerDetails(ctx, cred); err == nil && info.GivenName != "" {
		notice = fmt.Sprintf("Welcome back, %s!", info.GivenName)
	}
	return c.sendHome(ctx, chatID, notice)
}
