package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/telegram"
)

var percentageKeyboard = telegram.Rows(3,
	telegram.Btn("2%"), telegram.Btn("5%"), telegram.Btn("10%"),
)

func (c *Controller) autoInvestMenu(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}

	cfg, configured, err := c.loadAutoInvest(ctx, cred.UserID)
	if err != nil {
		return err
	}
	if configured && cfg.TargetAccountID != "" && cfg.Percentage > 0 {
		text := fmt.Sprintf("Auto-invest is on: %d%% of every transfer goes to %s.",
			cfg.Percentage, cfg.TargetAccountID)
		kb := telegram.Rows(3,
			telegram.Btn("Remove Account"),
			telegram.Btn("Reselect"),
			telegram.Btn("Back"),
		)
		return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, kb)
	}

	return c.renderAutoInvestSelection(ctx, u, cred)
}

// renderAutoInvestSelection offers the eligible invest accounts. With
// exactly one eligible account only "Create" is offered, since selecting
// the single account is not a meaningful choice.
func (c *Controller) renderAutoInvestSelection(ctx context.Context, u telegram.Update, cred domain.Credentials) error {
	accounts, err := c.gateway.CustomerAccounts(ctx, cred)
	if err != nil {
		return err
	}

	var eligible []domain.Account
	for _, a := range accounts {
		if a.ProductID == investProductID {
			eligible = append(eligible, a)
		}
	}

	var kb telegram.Keyboard
	if len(eligible) > 1 {
		var buttons []telegram.Button
		for _, a := range eligible {
			buttons = append(buttons, telegram.Button{
				Label: fmt.Sprintf("%s (%s %s)", a.AccountID, a.Balance.StringFixed(2), a.Currency),
				Data:  "Account: " + a.AccountID,
			})
		}
		kb = telegram.Rows(1, buttons...)
	}
	kb = kb.Append(telegram.Rows(3, telegram.Btn("Create"), telegram.Btn("Back")))

	text := "Pick the account that should receive your auto-invest, or create a new one."
	if len(eligible) <= 1 {
		text = "Create a new invest account to receive your auto-invest."
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, kb)
}

func (c *Controller) autoInvestTarget(ctx context.Context, u telegram.Update, accountID string) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	if err := c.saveAutoInvest(ctx, cred.UserID, domain.AutoInvestConfig{TargetAccountID: accountID}); err != nil {
		return err
	}
	text := fmt.Sprintf("How much of each transfer should go to %s?", accountID)
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, percentageKeyboard)
}

func (c *Controller) autoInvestCreate(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	accountID, err := c.gateway.CreateAccount(ctx, cred, investProductID)
	if err != nil {
		return err
	}
	if err := c.saveAutoInvest(ctx, cred.UserID, domain.AutoInvestConfig{TargetAccountID: accountID}); err != nil {
		return err
	}
	text := fmt.Sprintf("Account %s created. How much of each transfer should go to it?", accountID)
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, percentageKeyboard)
}

func (c *Controller) autoInvestPercentage(ctx context.Context, u telegram.Update, choice string) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	percentage, err := strconv.Atoi(strings.TrimSuffix(choice, "%"))
	if err != nil {
		return newError(ErrorInvalidInput, "percentage_not_numeric", err)
	}

	cfg, configured, err := c.loadAutoInvest(ctx, cred.UserID)
	if err != nil {
		return err
	}
	if !configured || cfg.TargetAccountID == "" {
		// The target selection expired before the percentage arrived.
		return newError(ErrorSessionExpired, "autoinvest_target_missing", nil)
	}

	cfg.Percentage = percentage
	if err := c.saveAutoInvest(ctx, cred.UserID, cfg); err != nil {
		return err
	}
	notice := fmt.Sprintf("Auto-invest is on: %d%% of every transfer goes to %s.",
		cfg.Percentage, cfg.TargetAccountID)
	return c.sendHome(ctx, u.ChatID, notice)
}

func (c *Controller) autoInvestRemove(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	if err := c.deleteAutoInvest(ctx, cred.UserID); err != nil {
		return err
	}
	return c.sendHome(ctx, u.ChatID, "Auto-invest is off.")
}

func (c *Controller) autoInvestReselect(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	if err := c.deleteAutoInvest(ctx, cred.UserID); err != nil {
		return err
	}
	return c.renderAutoInvestSelection(ctx, u, cred)
}
