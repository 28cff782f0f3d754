package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/telegram"
)

const (
	transferNarrative = "TBank Bot transfer"
	investNarrative   = "TBank Bot auto-invest"
)

func (c *Controller) startTransfer(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	beneficiaries, err := c.gateway.Beneficiaries(ctx, cred)
	if err != nil {
		return err
	}

	// Destinations read top-to-bottom, one per row.
	var buttons []telegram.Button
	for _, b := range beneficiaries {
		label := b.AccountID
		if b.Description != "" {
			label = fmt.Sprintf("%s (%s)", b.Description, b.AccountID)
		}
		buttons = append(buttons, telegram.Button{Label: label, Data: "Transfer To " + b.AccountID})
	}
	kb := telegram.Rows(1, buttons...).
		Append(telegram.Rows(3, telegram.Btn("Add Beneficiary"), telegram.Btn("Back")))

	text := "Who would you like to transfer to?"
	if len(beneficiaries) == 0 {
		text = "You have no saved beneficiaries yet. Add one first."
	}
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, kb)
}

func (c *Controller) transferTo(ctx context.Context, u telegram.Update, destination string) error {
	if _, err := c.requireCredentials(ctx, u.ChatID); err != nil {
		return err
	}
	st := domain.State{
		Kind:     domain.StateAwaitingAmount,
		Transfer: &domain.TransferDraft{Destination: destination},
	}
	if err := c.saveState(ctx, u.ChatID, st); err != nil {
		return err
	}
	text := fmt.Sprintf("How much would you like to transfer to %s?", destination)
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, text, cancelKeyboard)
}

func (c *Controller) transferAmount(ctx context.Context, chatID string, st domain.State, text string) error {
	if st.Transfer == nil {
		return newError(ErrorSessionExpired, "transfer_draft_missing", nil)
	}
	cred, err := c.requireCredentials(ctx, chatID)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return newError(ErrorInvalidInput, "amount_not_numeric", err)
	}
	if !amount.IsPositive() {
		return newError(ErrorInvalidInput, "amount_not_positive", nil)
	}

	accounts, err := c.gateway.CustomerAccounts(ctx, cred)
	if err != nil {
		return err
	}

	balances := make(map[string]decimal.Decimal)
	var buttons []telegram.Button
	for _, a := range accounts {
		if a.Balance.LessThan(amount) {
			continue
		}
		balances[a.AccountID] = a.Balance
		buttons = append(buttons, telegram.Button{
			Label: fmt.Sprintf("%s (%s %s)", a.AccountID, a.Balance.StringFixed(2), a.Currency),
			Data:  "Transfer From " + a.AccountID,
		})
	}
	if len(buttons) == 0 {
		return newError(ErrorInvalidInput, "no_account_covers_amount", nil)
	}

	next := domain.State{
		Kind: domain.StateAwaitingSource,
		Transfer: &domain.TransferDraft{
			Destination: st.Transfer.Destination,
			Amount:      amount,
			Balances:    balances,
		},
	}
	if err := c.saveState(ctx, chatID, next); err != nil {
		return err
	}

	kb := telegram.Rows(1, buttons...).Append(cancelKeyboard)
	return c.messenger.SendText(ctx, chatID, "Which account should the funds come from?", kb)
}

func (c *Controller) transferFrom(ctx context.Context, u telegram.Update, source string) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	st, err := c.loadState(ctx, u.ChatID)
	if err != nil {
		return err
	}
	if st.Kind != domain.StateAwaitingSource || st.Transfer == nil {
		return newError(ErrorSessionExpired, "transfer_draft_missing", nil)
	}
	draft := *st.Transfer

	balance, ok := draft.Balances[source]
	if !ok {
		return newError(ErrorInvalidInput, "unknown_source_account", nil)
	}
	draft.Source = source
	draft.ReferenceNumber = newReference()

	// Auto-invest applies when a complete config exists and the source is
	// not itself the invest target.
	cfg, configured, err := c.loadAutoInvest(ctx, cred.UserID)
	if err != nil {
		return err
	}
	if configured && cfg.TargetAccountID != "" && cfg.Percentage > 0 && cfg.TargetAccountID != source {
		draft.InvestTarget = cfg.TargetAccountID
		draft.InvestAmount = draft.Amount.
			Mul(decimal.NewFromInt(int64(cfg.Percentage))).
			Div(decimal.NewFromInt(100)).
			Round(2)
		if balance.LessThan(draft.Amount.Add(draft.InvestAmount)) {
			return newError(ErrorInvalidInput, "balance_cannot_cover_invest_leg", nil)
		}
	}

	next := domain.State{Kind: domain.StateAwaitingConfirm, Transfer: &draft}
	if err := c.saveState(ctx, u.ChatID, next); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Please confirm your transfer:\n")
	fmt.Fprintf(&b, "To: %s\n", draft.Destination)
	fmt.Fprintf(&b, "From: %s\n", draft.Source)
	fmt.Fprintf(&b, "Amount: %s\n", draft.Amount.StringFixed(2))
	if draft.InvestTarget != "" {
		fmt.Fprintf(&b, "Auto-invest: %s to %s\n", draft.InvestAmount.StringFixed(2), draft.InvestTarget)
	}
	kb := telegram.Rows(3, telegram.Btn("Confirm"), telegram.Btn("Cancel"))
	return c.messenger.EditText(ctx, u.ChatID, u.MessageID, b.String(), kb)
}

// confirmTransfer runs the transfer/invest orchestration: submit the
// primary transfer, and only on its success submit the best-effort invest
// leg. The gateway has no compensating transaction, so a failed invest leg
// is reported, not rolled back.
func (c *Controller) confirmTransfer(ctx context.Context, u telegram.Update) error {
	cred, err := c.requireCredentials(ctx, u.ChatID)
	if err != nil {
		return err
	}
	st, err := c.loadState(ctx, u.ChatID)
	if err != nil {
		return err
	}
	if st.Kind != domain.StateAwaitingConfirm || st.Transfer == nil {
		return newError(ErrorSessionExpired, "transfer_draft_missing", nil)
	}
	draft := *st.Transfer

	primary := domain.TransferIntent{
		AccountFrom:     draft.Source,
		AccountTo:       draft.Destination,
		Amount:          draft.Amount,
		ReferenceNumber: draft.ReferenceNumber,
		Narrative:       transferNarrative,
	}
	if _, err := c.gateway.Transfer(ctx, cred, primary); err != nil {
		return err
	}

	if err := c.clearState(ctx, u.ChatID); err != nil {
		return err
	}

	notice := fmt.Sprintf("Transfer of %s to %s completed.", draft.Amount.StringFixed(2), draft.Destination)
	if draft.InvestTarget != "" && draft.InvestAmount.IsPositive() {
		secondary := domain.TransferIntent{
			AccountFrom:     draft.Source,
			AccountTo:       draft.InvestTarget,
			Amount:          draft.InvestAmount,
			ReferenceNumber: newReference(),
			Narrative:       investNarrative,
		}
		if _, err := c.gateway.Transfer(ctx, cred, secondary); err != nil {
			slog.Warn("auto-invest leg failed after successful transfer",
				"chat_id", u.ChatID, "target", draft.InvestTarget, "err", err)
			notice = fmt.Sprintf(
				"Transfer of %s to %s completed, but the auto-invest of %s to %s failed. Your main transfer went through.",
				draft.Amount.StringFixed(2), draft.Destination,
				draft.InvestAmount.StringFixed(2), draft.InvestTarget,
			)
		} else {
			notice = fmt.Sprintf("%s Auto-invested %s to %s.",
				notice, draft.InvestAmount.StringFixed(2), draft.InvestTarget)
		}
	}
	return c.sendHome(ctx, u.ChatID, notice)
}
