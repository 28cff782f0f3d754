package domain

import "github.com/shopspring/decimal"

// Credentials is the authenticated identity bound to a chat. It is written
// once after an OTP-verified login, read by every authenticated gateway
// operation, and deleted on logout.
type Credentials struct {
	ServiceName string `json:"serviceName"`
	UserID      string `json:"userID"`
	PIN         string `json:"pin"`
	OTP         string `json:"otp"`
}

// Account is a customer bank account as reported by the gateway.
type Account struct {
	AccountID string
	ProductID string
	Balance   decimal.Decimal
	Currency  string
	Status    string
}

// Beneficiary is a saved transfer destination.
type Beneficiary struct {
	BeneficiaryID string
	AccountID     string
	Description   string
}

// TransferIntent is a funds transfer built incrementally across the
// destination, amount and source steps. The reference number is generated
// once per intent so a resubmission carries the same token.
type TransferIntent struct {
	AccountFrom     string          `json:"accountFrom"`
	AccountTo       string          `json:"accountTo"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"referenceNumber"`
	Narrative       string          `json:"narrative"`
}

// BeneficiaryDraft is an add-beneficiary request built across two steps.
type BeneficiaryDraft struct {
	AccountID   string `json:"accountId"`
	Description string `json:"description"`
}

// AutoInvestConfig routes a percentage of every successful transfer to a
// designated account. User-scoped and durable until explicitly removed.
type AutoInvestConfig struct {
	TargetAccountID string `json:"targetAccountId"`
	Percentage      int    `json:"percentage"`
}

// CustomerInfo is the subset of customer details the bot renders.
type CustomerInfo struct {
	CustomerID string
	GivenName  string
	FamilyName string
}

// TransferReceipt reports a completed transfer. The balance fields are
// opaque gateway strings; their format is not stable enough to parse.
type TransferReceipt struct {
	TransactionID string
	BalanceBefore string
	BalanceAfter  string
}

// BalancePoint is one month-end balance sample.
type BalancePoint struct {
	YearMonth string `json:"Year_Month"`
	Balance   string `json:"Balance"`
}

// BalanceTrend is the series consumed by the chart generator.
type BalanceTrend struct {
	MonthEnd     []BalancePoint `json:"MonthEndBalance"`
	CurrentMonth BalancePoint   `json:"CurrentMonth"`
}

// CustomerApplication carries the sign-up answers collected in chat. The
// gateway adapter fills the remaining onboarding fields with fixed defaults.
type CustomerApplication struct {
	PreferredUserID string `json:"preferredUserId"`
	GivenName       string `json:"givenName"`
	FamilyName      string `json:"familyName"`
	ICNumber        string `json:"icNumber"`
	DateOfBirth     string `json:"dateOfBirth"`
}

// OnboardResult reports what the gateway provisioned for a new customer.
// Any field may be empty; the leaves are not reliably present.
type OnboardResult struct {
	CustomerID string
	AccountID  string
	PIN        string
}
