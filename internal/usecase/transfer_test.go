package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/session"
)

func transferReadyGateway() *mockGateway {
	return &mockGateway{
		beneficiariesFn: func(domain.Credentials) ([]domain.Beneficiary, error) {
			return []domain.Beneficiary{{BeneficiaryID: "B1", AccountID: "ACC09", Description: "Mum"}}, nil
		},
		accountsFn: func(domain.Credentials) ([]domain.Account, error) {
			return []domain.Account{
				{AccountID: "ACC01", ProductID: "100", Balance: dec("200.00"), Currency: "SGD"},
				{AccountID: "ACC02", ProductID: "100", Balance: dec("10.00"), Currency: "SGD"},
			}, nil
		},
		transferFn: func(domain.Credentials, domain.TransferIntent) (domain.TransferReceipt, error) {
			return domain.TransferReceipt{TransactionID: "TX1"}, nil
		},
	}
}

func TestTransferFlow(t *testing.T) {
	gw := transferReadyGateway()
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	fixReference(t, "ref-1")
	ctx := context.Background()

	c.HandleUpdate(ctx, callback("Transfer"))
	require.Contains(t, messenger.last(t).text, "Who would you like to transfer to?")
	require.Equal(t, []string{"Mum (ACC09)", "Add Beneficiary", "Back"}, messenger.labels(t))

	c.HandleUpdate(ctx, callback("Transfer To ACC09"))
	require.Contains(t, messenger.last(t).text, "How much would you like to transfer to ACC09?")

	c.HandleUpdate(ctx, message("50"))
	// Only accounts that cover the amount are offered.
	require.Equal(t, []string{"ACC01 (200.00 SGD)", "Cancel"}, messenger.labels(t))

	c.HandleUpdate(ctx, callback("Transfer From ACC01"))
	summary := messenger.last(t).text
	require.Contains(t, summary, "To: ACC09")
	require.Contains(t, summary, "From: ACC01")
	require.Contains(t, summary, "Amount: 50.00")
	require.NotContains(t, summary, "Auto-invest")
	require.Equal(t, []string{"Confirm", "Cancel"}, messenger.labels(t))

	c.HandleUpdate(ctx, callback("Confirm"))

	require.Len(t, gw.transfers, 1)
	require.Equal(t, domain.TransferIntent{
		AccountFrom:     "ACC01",
		AccountTo:       "ACC09",
		Amount:          dec("50"),
		ReferenceNumber: "ref-1",
		Narrative:       "TBank Bot transfer",
	}, gw.transfers[0])

	require.Contains(t, messenger.last(t).text, "Transfer of 50.00 to ACC09 completed.")
	_, err := store.Get(ctx, session.Key(testChatID, session.TopicState))
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestTransferFlow_WithAutoInvest(t *testing.T) {
	gw := transferReadyGateway()
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	fixReference(t, "ref-1", "ref-2")
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 5}))

	c.HandleUpdate(ctx, callback("Transfer"))
	c.HandleUpdate(ctx, callback("Transfer To ACC09"))
	c.HandleUpdate(ctx, message("50"))
	c.HandleUpdate(ctx, callback("Transfer From ACC01"))

	summary := messenger.last(t).text
	require.Contains(t, summary, "Auto-invest: 2.50 to ACC50")

	c.HandleUpdate(ctx, callback("Confirm"))

	require.Len(t, gw.transfers, 2)
	require.Equal(t, domain.TransferIntent{
		AccountFrom:     "ACC01",
		AccountTo:       "ACC09",
		Amount:          dec("50"),
		ReferenceNumber: "ref-1",
		Narrative:       "TBank Bot transfer",
	}, gw.transfers[0])
	invest := gw.transfers[1]
	require.Equal(t, "ACC01", invest.AccountFrom)
	require.Equal(t, "ACC50", invest.AccountTo)
	require.True(t, invest.Amount.Equal(dec("2.50")))
	require.Equal(t, "ref-2", invest.ReferenceNumber)
	require.Equal(t, "TBank Bot auto-invest", invest.Narrative)

	require.Contains(t, messenger.last(t).text, "Auto-invested 2.50 to ACC50.")
}

func TestTransferFlow_InvestLegFailureIsReported(t *testing.T) {
	gw := transferReadyGateway()
	gw.transferFn = func(_ domain.Credentials, intent domain.TransferIntent) (domain.TransferReceipt, error) {
		if intent.Narrative == investNarrative {
			return domain.TransferReceipt{}, errors.New("gateway timeout")
		}
		return domain.TransferReceipt{TransactionID: "TX1"}, nil
	}
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	fixReference(t, "ref-1", "ref-2")
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 5}))

	c.HandleUpdate(ctx, callback("Transfer"))
	c.HandleUpdate(ctx, callback("Transfer To ACC09"))
	c.HandleUpdate(ctx, message("50"))
	c.HandleUpdate(ctx, callback("Transfer From ACC01"))
	c.HandleUpdate(ctx, callback("Confirm"))

	require.Len(t, gw.transfers, 2)
	notice := messenger.last(t).text
	require.Contains(t, notice, "auto-invest of 2.50 to ACC50 failed")
	require.Contains(t, notice, "Your main transfer went through.")
}

// The invest target never routes into itself: a transfer drawn from the
// configured target carries no invest leg.
func TestTransferFlow_SourceIsInvestTarget(t *testing.T) {
	gw := transferReadyGateway()
	gw.accountsFn = func(domain.Credentials) ([]domain.Account, error) {
		return []domain.Account{
			{AccountID: "ACC50", ProductID: "101", Balance: dec("200.00"), Currency: "SGD"},
		}, nil
	}
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	fixReference(t, "ref-1")
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 5}))

	c.HandleUpdate(ctx, callback("Transfer"))
	c.HandleUpdate(ctx, callback("Transfer To ACC09"))
	c.HandleUpdate(ctx, message("50"))
	c.HandleUpdate(ctx, callback("Transfer From ACC50"))
	require.NotContains(t, messenger.last(t).text, "Auto-invest")

	c.HandleUpdate(ctx, callback("Confirm"))
	require.Len(t, gw.transfers, 1)
}

func TestTransferFlow_BalanceMustCoverInvestLeg(t *testing.T) {
	gw := transferReadyGateway()
	gw.accountsFn = func(domain.Credentials) ([]domain.Account, error) {
		// Covers the 50.00 transfer but not the extra 2.50 invest leg.
		return []domain.Account{
			{AccountID: "ACC01", ProductID: "100", Balance: dec("51.00"), Currency: "SGD"},
		}, nil
	}
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	fixReference(t, "ref-1")
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 5}))

	c.HandleUpdate(ctx, callback("Transfer"))
	c.HandleUpdate(ctx, callback("Transfer To ACC09"))
	c.HandleUpdate(ctx, message("50"))
	c.HandleUpdate(ctx, callback("Transfer From ACC01"))

	require.Empty(t, gw.transfers)
	require.Contains(t, messenger.last(t).text, "That input doesn't look right.")
}

func TestTransferAmount_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{name: "not numeric", input: "fifty"},
		{name: "zero", input: "0"},
		{name: "negative", input: "-5"},
		{name: "exceeds every balance", input: "5000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := transferReadyGateway()
			c, messenger, store := newTestController(t, gw)
			authenticate(t, store, domain.Credentials{UserID: "alice"})
			ctx := context.Background()

			st := domain.State{Kind: domain.StateAwaitingAmount, Transfer: &domain.TransferDraft{Destination: "ACC09"}}
			require.NoError(t, c.saveState(ctx, testChatID, st))

			c.HandleUpdate(ctx, message(tc.input))
			require.Contains(t, messenger.last(t).text, "That input doesn't look right.")
		})
	}
}

func TestConfirm_WithoutDraftReportsExpiry(t *testing.T) {
	c, messenger, store := newTestController(t, &mockGateway{})
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("Confirm"))
	require.Contains(t, messenger.last(t).text, "Your session has expired.")
}

func TestTransfer_NoBeneficiaries(t *testing.T) {
	gw := transferReadyGateway()
	gw.beneficiariesFn = func(domain.Credentials) ([]domain.Beneficiary, error) {
		return nil, nil
	}
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("Transfer"))
	require.Contains(t, messenger.last(t).text, "no saved beneficiaries")
	require.Equal(t, []string{"Add Beneficiary", "Back"}, messenger.labels(t))
}
