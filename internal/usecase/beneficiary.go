package usecase

import (
	"context"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/telegram"
)

func (c *Controller) startAddBeneficiary(ctx context.Context, u telegram.Update) error {
	if _, err := c.requireCredentials(ctx, u.ChatID); err != nil {
		return err
	}
	st := domain.State{Kind: domain.StateAwaitingBeneficiaryAccount}
	if err := c.saveState(ctx, u.ChatID, st); err != nil {
		return err
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID,
		"Please key in the beneficiary's account number", cancelKeyboard)
}

func (c *Controller) beneficiaryAccount(ctx context.Context, chatID, accountID string) error {
	if accountID == "" {
		return newError(ErrorInvalidInput, "empty_account_number", nil)
	}
	st := domain.State{
		Kind:        domain.StateAwaitingBeneficiaryDesc,
		Beneficiary: &domain.BeneficiaryDraft{AccountID: accountID},
	}
	if err := c.saveState(ctx, chatID, st); err != nil {
		return err
	}
	return c.messenger.SendText(ctx, chatID,
		"What would you like to call this beneficiary?", cancelKeyboard)
}

func (c *Controller) beneficiaryDescription(ctx context.Context, chatID string, st domain.State, description string) error {
	if st.Beneficiary == nil {
		return newError(ErrorSessionExpired, "beneficiary_draft_missing", nil)
	}
	if description == "" {
		return newError(ErrorInvalidInput, "empty_description", nil)
	}
	cred, err := c.requireCredentials(ctx, chatID)
	if err != nil {
		return err
	}

	if err := c.gateway.AddBeneficiary(ctx, cred, st.Beneficiary.AccountID, description); err != nil {
		return err
	}
	if err := c.clearState(ctx, chatID); err != nil {
		return err
	}
	return c.sendHome(ctx, chatID, "Beneficiary added.")
}
