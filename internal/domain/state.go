package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// StateKind identifies which prompt a conversation is waiting on.
type StateKind string

const (
	StateAwaitingUsername           StateKind = "awaiting_username"
	StateAwaitingPIN                StateKind = "awaiting_pin"
	StateAwaitingOTP                StateKind = "awaiting_otp"
	StateAwaitingAmount             StateKind = "awaiting_amount"
	StateAwaitingSource             StateKind = "awaiting_source"
	StateAwaitingConfirm            StateKind = "awaiting_confirm"
	StateAwaitingBeneficiaryAccount StateKind = "awaiting_beneficiary_account"
	StateAwaitingBeneficiaryDesc    StateKind = "awaiting_beneficiary_description"
	StateSignupUsername             StateKind = "signup_username"
	StateSignupGivenName            StateKind = "signup_given_name"
	StateSignupFamilyName           StateKind = "signup_family_name"
	StateSignupICNumber             StateKind = "signup_ic_number"
	StateSignupDateOfBirth          StateKind = "signup_date_of_birth"
)

var validStateKinds = map[StateKind]bool{
	StateAwaitingUsername:           true,
	StateAwaitingPIN:                true,
	StateAwaitingOTP:                true,
	StateAwaitingAmount:             true,
	StateAwaitingSource:             true,
	StateAwaitingConfirm:            true,
	StateAwaitingBeneficiaryAccount: true,
	StateAwaitingBeneficiaryDesc:    true,
	StateSignupUsername:             true,
	StateSignupGivenName:            true,
	StateSignupFamilyName:           true,
	StateSignupICNumber:             true,
	StateSignupDateOfBirth:          true,
}

// LoginStep holds the partial login collected before OTP verification.
type LoginStep struct {
	Username string `json:"username"`
	PIN      string `json:"pin,omitempty"`
}

// TransferDraft accumulates a transfer across the conversation steps.
// Balances captures the eligible source accounts at the amount step so the
// confirmation step can check cover for the invest leg without refetching.
type TransferDraft struct {
	Destination     string                     `json:"destination"`
	Amount          decimal.Decimal            `json:"amount"`
	Source          string                     `json:"source,omitempty"`
	ReferenceNumber string                     `json:"referenceNumber,omitempty"`
	Balances        map[string]decimal.Decimal `json:"balances,omitempty"`
	InvestTarget    string                     `json:"investTarget,omitempty"`
	InvestAmount    decimal.Decimal            `json:"investAmount"`
}

// State is the closed union of in-progress conversation states. Exactly one
// payload field is populated for kinds that carry data. A chat with no
// stored State is idle on its home screen.
type State struct {
	Kind        StateKind            `json:"kind"`
	Login       *LoginStep           `json:"login,omitempty"`
	Transfer    *TransferDraft       `json:"transfer,omitempty"`
	Beneficiary *BeneficiaryDraft    `json:"beneficiary,omitempty"`
	Signup      *CustomerApplication `json:"signup,omitempty"`
}

// Encode serializes the state for the session store.
func (s State) Encode() (string, error) {
	if !validStateKinds[s.Kind] {
		return "", fmt.Errorf("domain: unknown state kind %q", s.Kind)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("domain: encode state: %w", err)
	}
	return string(raw), nil
}

// DecodeState parses a stored state and rejects unknown kinds, so a stale
// value from an older deployment is treated as an expired session rather
// than acted on.
func DecodeState(raw string) (State, error) {
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}, fmt.Errorf("domain: decode state: %w", err)
	}
	if !validStateKinds[s.Kind] {
		return State{}, fmt.Errorf("domain: unknown state kind %q", s.Kind)
	}
	return s, nil
}
