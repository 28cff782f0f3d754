package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tbank-bot/internal/domain"
	"tbank-bot/internal/session"
)

func investAccountsGateway(accounts ...domain.Account) *mockGateway {
	return &mockGateway{
		accountsFn: func(domain.Credentials) ([]domain.Account, error) {
			return accounts, nil
		},
	}
}

func TestAutoInvestMenu_NotConfigured_NoEligibleAccounts(t *testing.T) {
	gw := investAccountsGateway(
		domain.Account{AccountID: "ACC01", ProductID: "100", Balance: dec("200.00"), Currency: "SGD"},
	)
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("AutoInvest"))

	require.Contains(t, messenger.last(t).text, "Create a new invest account")
	require.Equal(t, []string{"Create", "Back"}, messenger.labels(t))
}

// With a single eligible account, picking it is not a meaningful choice, so
// only Create is offered.
func TestAutoInvestMenu_NotConfigured_OneEligibleAccount(t *testing.T) {
	gw := investAccountsGateway(
		domain.Account{AccountID: "ACC50", ProductID: investProductID, Balance: dec("5.00"), Currency: "SGD"},
	)
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("AutoInvest"))
	require.Equal(t, []string{"Create", "Back"}, messenger.labels(t))
}

func TestAutoInvestMenu_NotConfigured_ManyEligibleAccounts(t *testing.T) {
	gw := investAccountsGateway(
		domain.Account{AccountID: "ACC50", ProductID: investProductID, Balance: dec("5.00"), Currency: "SGD"},
		domain.Account{AccountID: "ACC51", ProductID: investProductID, Balance: dec("7.00"), Currency: "SGD"},
		domain.Account{AccountID: "ACC01", ProductID: "100", Balance: dec("200.00"), Currency: "SGD"},
	)
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("AutoInvest"))

	require.Contains(t, messenger.last(t).text, "Pick the account")
	require.Equal(t, []string{
		"ACC50 (5.00 SGD)", "ACC51 (7.00 SGD)", "Create", "Back",
	}, messenger.labels(t))
}

func TestAutoInvest_SelectExistingThenPercentage(t *testing.T) {
	gw := investAccountsGateway(
		domain.Account{AccountID: "ACC50", ProductID: investProductID, Balance: dec("5.00"), Currency: "SGD"},
		domain.Account{AccountID: "ACC51", ProductID: investProductID, Balance: dec("7.00"), Currency: "SGD"},
	)
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	ctx := context.Background()

	c.HandleUpdate(ctx, callback("AutoInvest"))
	c.HandleUpdate(ctx, callback("Account: ACC50"))
	require.Equal(t, []string{"2%", "5%", "10%"}, messenger.labels(t))

	c.HandleUpdate(ctx, callback("5%"))
	require.Contains(t, messenger.last(t).text, "Auto-invest is on: 5% of every transfer goes to ACC50.")

	cfg, configured, err := c.loadAutoInvest(ctx, "alice")
	require.NoError(t, err)
	require.True(t, configured)
	require.Equal(t, domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 5}, cfg)
}

func TestAutoInvest_CreateAccountThenPercentage(t *testing.T) {
	gw := investAccountsGateway()
	var createdProduct string
	gw.createAccountFn = func(_ domain.Credentials, productID string) (string, error) {
		createdProduct = productID
		return "ACC77", nil
	}
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	ctx := context.Background()

	c.HandleUpdate(ctx, callback("Create"))
	require.Equal(t, investProductID, createdProduct)
	require.Contains(t, messenger.last(t).text, "Account ACC77 created.")

	c.HandleUpdate(ctx, callback("2%"))

	cfg, configured, err := c.loadAutoInvest(ctx, "alice")
	require.NoError(t, err)
	require.True(t, configured)
	require.Equal(t, domain.AutoInvestConfig{TargetAccountID: "ACC77", Percentage: 2}, cfg)
}

func TestAutoInvestMenu_Configured(t *testing.T) {
	c, messenger, store := newTestController(t, &mockGateway{})
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 10}))

	c.HandleUpdate(ctx, callback("AutoInvest"))

	require.Contains(t, messenger.last(t).text, "10% of every transfer goes to ACC50")
	require.Equal(t, []string{"Remove Account", "Reselect", "Back"}, messenger.labels(t))
}

func TestAutoInvest_Remove(t *testing.T) {
	c, messenger, store := newTestController(t, &mockGateway{})
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 10}))

	c.HandleUpdate(ctx, callback("Remove Account"))

	require.Contains(t, messenger.last(t).text, "Auto-invest is off.")
	_, err := store.Get(ctx, session.Key("alice", session.TopicAutoInvest))
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestAutoInvest_ReselectClearsConfigAndOffersAccounts(t *testing.T) {
	gw := investAccountsGateway(
		domain.Account{AccountID: "ACC50", ProductID: investProductID, Balance: dec("5.00"), Currency: "SGD"},
	)
	c, messenger, store := newTestController(t, gw)
	authenticate(t, store, domain.Credentials{UserID: "alice"})
	ctx := context.Background()

	require.NoError(t, c.saveAutoInvest(ctx, "alice", domain.AutoInvestConfig{TargetAccountID: "ACC50", Percentage: 10}))

	c.HandleUpdate(ctx, callback("Reselect"))

	_, configured, err := c.loadAutoInvest(ctx, "alice")
	require.NoError(t, err)
	require.False(t, configured)
	require.Equal(t, []string{"Create", "Back"}, messenger.labels(t))
}

// A percentage press with no stored target means the selection expired
// between the two steps.
func TestAutoInvest_PercentageWithoutTargetReportsExpiry(t *testing.T) {
	c, messenger, store := newTestController(t, &mockGateway{})
	authenticate(t, store, domain.Credentials{UserID: "alice"})

	c.HandleUpdate(context.Background(), callback("5%"))
	require.Contains(t, messenger.last(t).text, "Your session has expired.")
}
