package tbank

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"tbank-bot/internal/domain"
)

// Gateway service names.
const (
	opRequestOTP          = "requestOTP"
	opLogin               = "loginCustomer"
	opCustomerDetails     = "getCustomerDetails"
	opCustomerAccounts    = "getCustomerAccounts"
	opBeneficiaries       = "getBeneficiaryList"
	opAddBeneficiary      = "addBeneficiary"
	opCreateAccount       = "createBankAccount"
	opTransfer            = "creditTransfer"
	opMonthlyBalanceTrend = "getMonthlyBalanceTrend"
	opOnboardCustomer     = "onboardCustomer"
)

// Onboarding fields the chat flow does not collect. The gateway requires
// them to be present; the values are the sandbox defaults.
var onboardDefaults = onboardCustomerContent{
	Gender:        "M",
	Occupation:    "OTHERS",
	StreetAddress: "1 Shenton Way",
	City:          "Singapore",
	State:         "Singapore",
	Country:       "SG",
	PostalCode:    "068803",
	CountryCode:   "65",
	MobileNumber:  "00000000",
	Currency:      "SGD",
	BankID:        "01",
}

func credHeader(op string, cred domain.Credentials) requestHeader {
	return requestHeader{
		ServiceName: op,
		UserID:      cred.UserID,
		PIN:         cred.PIN,
		OTP:         cred.OTP,
	}
}

func decodeFlatHeader(op string, raw json.RawMessage) (respHeader, error) {
	var h respHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return respHeader{}, &DecodeError{Op: op, Payload: raw, Err: err}
	}
	return h, nil
}

// RequestOTP asks the gateway to issue an OTP for the given user and PIN.
func (c *Client) RequestOTP(ctx context.Context, cred domain.Credentials) error {
	raw, err := c.invoke(ctx, credHeader(opRequestOTP, cred), nil)
	if err != nil {
		return err
	}
	h, err := decodeFlatHeader(opRequestOTP, raw)
	if err != nil {
		return err
	}
	if classify(h, otpRequestOK) != StatusSuccess {
		return fmt.Errorf("tbank: %s: %w", opRequestOTP, ErrBusinessFailure)
	}
	return nil
}

// Login verifies the user's PIN and OTP together.
func (c *Client) Login(ctx context.Context, cred domain.Credentials) error {
	raw, err := c.invoke(ctx, credHeader(opLogin, cred), nil)
	if err != nil {
		return err
	}
	h, err := decodeFlatHeader(opLogin, raw)
	if err != nil {
		return err
	}
	if classify(h, loginOK) != StatusSuccess {
		return fmt.Errorf("tbank: %s: %w", opLogin, ErrBusinessFailure)
	}
	return nil
}

// CustomerDetails fetches the customer profile behind the credentials.
func (c *Client) CustomerDetails(ctx context.Context, cred domain.Credentials) (domain.CustomerInfo, error) {
	raw, err := c.invoke(ctx, credHeader(opCustomerDetails, cred), nil)
	if err != nil {
		return domain.CustomerInfo{}, err
	}
	var resp customerDetailsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.CustomerInfo{}, &DecodeError{Op: opCustomerDetails, Payload: raw, Err: err}
	}
	return domain.CustomerInfo{
		CustomerID: resp.CDMCustomer.Customer.CustomerID,
		GivenName:  resp.CDMCustomer.GivenName,
		FamilyName: resp.CDMCustomer.FamilyName,
	}, nil
}

// CustomerAccounts lists the customer's accounts. The gateway returns a
// single object or an array under the same field depending on how many
// accounts exist.
func (c *Client) CustomerAccounts(ctx context.Context, cred domain.Credentials) ([]domain.Account, error) {
	raw, err := c.invoke(ctx, credHeader(opCustomerAccounts, cred), nil)
	if err != nil {
		return nil, err
	}
	var resp accountsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodeError{Op: opCustomerAccounts, Payload: raw, Err: err}
	}

	items := resp.AccountList.Account.Items()
	accounts := make([]domain.Account, 0, len(items))
	for _, a := range items {
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return nil, &DecodeError{Op: opCustomerAccounts, Payload: raw, Err: fmt.Errorf("parse balance %q: %w", a.Balance, err)}
		}
		accounts = append(accounts, domain.Account{
			AccountID: a.AccountID,
			ProductID: a.ProductID,
			Balance:   balance,
			Currency:  a.Currency,
			Status:    a.CurrentStatus,
		})
	}
	return accounts, nil
}

// Beneficiaries lists saved transfer destinations. Same single-vs-array
// ambiguity as CustomerAccounts.
func (c *Client) Beneficiaries(ctx context.Context, cred domain.Credentials) ([]domain.Beneficiary, error) {
	raw, err := c.invoke(ctx, credHeader(opBeneficiaries, cred), nil)
	if err != nil {
		return nil, err
	}
	var resp beneficiariesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &DecodeError{Op: opBeneficiaries, Payload: raw, Err: err}
	}

	items := resp.BeneficiaryList.Beneficiary.Items()
	beneficiaries := make([]domain.Beneficiary, 0, len(items))
	for _, b := range items {
		beneficiaries = append(beneficiaries, domain.Beneficiary{
			BeneficiaryID: b.BeneficiaryID,
			AccountID:     b.AccountID,
			Description:   b.Description,
		})
	}
	return beneficiaries, nil
}

// AddBeneficiary registers a new transfer destination.
func (c *Client) AddBeneficiary(ctx context.Context, cred domain.Credentials, accountID, description string) error {
	content := addBeneficiaryContent{AccountID: accountID, Description: description}
	raw, err := c.invoke(ctx, credHeader(opAddBeneficiary, cred), content)
	if err != nil {
		return err
	}
	h, err := decodeFlatHeader(opAddBeneficiary, raw)
	if err != nil {
		return err
	}
	if classify(h, invocationOK) != StatusSuccess {
		return fmt.Errorf("tbank: %s: %w", opAddBeneficiary, ErrBusinessFailure)
	}
	return nil
}

// CreateAccount opens a new account under the given product and returns the
// created account id.
func (c *Client) CreateAccount(ctx context.Context, cred domain.Credentials, productID string) (string, error) {
	raw, err := c.invoke(ctx, credHeader(opCreateAccount, cred), createAccountContent{ProductID: productID})
	if err != nil {
		return "", err
	}
	h, err := decodeFlatHeader(opCreateAccount, raw)
	if err != nil {
		return "", err
	}
	if classify(h, invocationOK) != StatusSuccess {
		return "", fmt.Errorf("tbank: %s: %w", opCreateAccount, ErrBusinessFailure)
	}

	accountID := extractCreatedAccountID(raw)
	if accountID == "" {
		return "", &DecodeError{Op: opCreateAccount, Payload: raw, Err: fmt.Errorf("created account id not found")}
	}
	return accountID, nil
}

// Transfer submits a credit transfer and returns the gateway's receipt.
func (c *Client) Transfer(ctx context.Context, cred domain.Credentials, intent domain.TransferIntent) (domain.TransferReceipt, error) {
	content := transferContent{
		AccountFrom:                intent.AccountFrom,
		AccountTo:                  intent.AccountTo,
		TransactionAmount:          intent.Amount.StringFixed(2),
		TransactionReferenceNumber: intent.ReferenceNumber,
		Narrative:                  intent.Narrative,
	}
	raw, err := c.invoke(ctx, credHeader(opTransfer, cred), content)
	if err != nil {
		return domain.TransferReceipt{}, err
	}
	h, err := decodeFlatHeader(opTransfer, raw)
	if err != nil {
		return domain.TransferReceipt{}, err
	}
	if classify(h, invocationOK) != StatusSuccess {
		return domain.TransferReceipt{}, fmt.Errorf("tbank: %s: %w", opTransfer, ErrBusinessFailure)
	}

	before, after, txID := extractBalanceSnapshot(raw)
	return domain.TransferReceipt{
		TransactionID: txID,
		BalanceBefore: before,
		BalanceAfter:  after,
	}, nil
}

// MonthlyBalanceTrend fetches the month-end balance series for charting.
func (c *Client) MonthlyBalanceTrend(ctx context.Context, cred domain.Credentials) (domain.BalanceTrend, error) {
	raw, err := c.invoke(ctx, credHeader(opMonthlyBalanceTrend, cred), nil)
	if err != nil {
		return domain.BalanceTrend{}, err
	}
	var resp balanceTrendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.BalanceTrend{}, &DecodeError{Op: opMonthlyBalanceTrend, Payload: raw, Err: err}
	}

	var trend domain.BalanceTrend
	for _, r := range resp.MonthEndBalance.Items() {
		trend.MonthEnd = append(trend.MonthEnd, domain.BalancePoint{YearMonth: r.YearMonth, Balance: r.Balance})
	}
	trend.CurrentMonth = domain.BalancePoint{
		YearMonth: resp.CurrentMonth.YearMonth,
		Balance:   resp.CurrentMonth.Balance,
	}
	return trend, nil
}

// OnboardCustomer registers a new customer. Only the identity fields come
// from the application; the rest use onboardDefaults.
func (c *Client) OnboardCustomer(ctx context.Context, app domain.CustomerApplication) (domain.OnboardResult, error) {
	content := onboardDefaults
	content.ServiceName = opOnboardCustomer
	content.ICNumber = app.ICNumber
	content.FamilyName = app.FamilyName
	content.GivenName = app.GivenName
	content.DateOfBirth = app.DateOfBirth
	content.PreferredUserID = app.PreferredUserID

	raw, err := c.invoke(ctx, requestHeader{ServiceName: opOnboardCustomer}, content)
	if err != nil {
		return domain.OnboardResult{}, err
	}
	h, err := decodeFlatHeader(opOnboardCustomer, raw)
	if err != nil {
		return domain.OnboardResult{}, err
	}
	if classify(h, invocationOK) != StatusSuccess {
		return domain.OnboardResult{}, fmt.Errorf("tbank: %s: %w", opOnboardCustomer, ErrBusinessFailure)
	}

	customerID, accountID, pin := extractOnboardResult(raw)
	return domain.OnboardResult{
		CustomerID: customerID,
		AccountID:  accountID,
		PIN:        pin,
	}, nil
}
