package usecase

import (
	"context"
	"fmt"
	"time"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/telegram"
)

func (c *Controller) startSignup(ctx context.Context, u telegram.Update) error {
	st := domain.State{
		Kind:   domain.StateSignupUsername,
		Signup: &domain.CustomerApplication{},
	}
	if err := c.saveState(ctx, u.ChatID, st); err != nil {
		return err
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID,
		"Let's start with your chosen username", cancelKeyboard)
}

// signupStep advances the onboarding questionnaire one answer at a time and
// submits the application after the last one.
func (c *Controller) signupStep(ctx context.Context, chatID string, st domain.State, answer string) error {
	if st.Signup == nil {
		return newError(ErrorSessionExpired, "signup_draft_missing", nil)
	}
	if answer == "" {
		return newError(ErrorInvalidInput, "empty_answer", nil)
	}
	app := *st.Signup

	var next domain.StateKind
	var prompt string
	switch st.Kind {
	case domain.StateSignupUsername:
		app.PreferredUserID = answer
		next, prompt = domain.StateSignupGivenName, "What is your given name?"
	case domain.StateSignupGivenName:
		app.GivenName = answer
		next, prompt = domain.StateSignupFamilyName, "What is your family name?"
	case domain.StateSignupFamilyName:
		app.FamilyName = answer
		next, prompt = domain.StateSignupICNumber, "What is your IC number?"
	case domain.StateSignupICNumber:
		app.ICNumber = answer
		next, prompt = domain.StateSignupDateOfBirth, "What is your date of birth? (YYYY-MM-DD)"
	case domain.StateSignupDateOfBirth:
		if _, err := time.Parse("2006-01-02", answer); err != nil {
			return newError(ErrorInvalidInput, "date_of_birth_malformed", err)
		}
		app.DateOfBirth = answer
		return c.submitSignup(ctx, chatID, app)
	default:
		return newError(ErrorSessionExpired, "signup_step_unknown", nil)
	}

	if err := c.saveState(ctx, chatID, domain.State{Kind: next, Signup: &app}); err != nil {
		return err
	}
	return c.messenger.SendText(ctx, chatID, prompt, cancelKeyboard)
}

func (c *Controller) submitSignup(ctx context.Context, chatID string, app domain.CustomerApplication) error {
	result, err := c.gateway.OnboardCustomer(ctx, app)
	if err != nil {
		return err
	}
	if err := c.clearState(ctx, chatID); err != nil {
		return err
	}

	notice := "Welcome aboard! Your account is ready."
	if result.AccountID != "" && result.PIN != "" {
		notice = fmt.Sprintf("Welcome aboard! Your account %s is ready. Your PIN is %s - change it after your first login.",
			result.AccountID, result.PIN)
	} else if result.AccountID != "" {
		notice = fmt.Sprintf("Welcome aboard! Your account %s is ready.", result.AccountID)
	}
	return c.sendHome(ctx, chatID, notice)
}
