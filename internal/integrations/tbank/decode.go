package tbank

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrBusinessFailure reports a well-formed response with a negative business
// status. The gateway's own wording never travels past this package.
var ErrBusinessFailure = errors.New("tbank: business failure")

// DecodeError reports a response that matched none of the attempted shapes.
// Payload carries the raw body for diagnosis at the log site.
type DecodeError struct {
	Op      string
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tbank: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// envelope is the fixed outer wrapper on every gateway response.
type envelope struct {
	Content struct {
		ServiceResponse json.RawMessage `json:"ServiceResponse"`
	} `json:"Content"`
}

func unwrapEnvelope(op string, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Op: op, Payload: body, Err: err}
	}
	if len(env.Content.ServiceResponse) == 0 {
		return nil, &DecodeError{Op: op, Payload: body, Err: errors.New("missing Content.ServiceResponse")}
	}
	return env.Content.ServiceResponse, nil
}

// oneOrMany decodes a field the gateway serializes as a single object when
// there is one element and as an array otherwise. The object shape is
// attempted first; only on failure is the array shape tried.
type oneOrMany[T any] struct {
	items []T
}

func (o *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	// An explicit null is an empty list, not a phantom zero-valued element.
	if string(b) == "null" {
		o.items = nil
		return nil
	}
	var single T
	if err := json.Unmarshal(b, &single); err == nil {
		o.items = []T{single}
		return nil
	}
	var many []T
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("neither single object nor array: %w", err)
	}
	o.items = many
	return nil
}

func (o oneOrMany[T]) Items() []T {
	return o.items
}

// The accessors below pull leaf values out of partially-typed responses.
// The gateway's schema around these leaves is not stable enough to model as
// fixed types, so they are searched by path instead.

// extractCreatedAccountID finds the account id a createBankAccount call
// provisioned.
func extractCreatedAccountID(raw json.RawMessage) string {
	return firstString(raw, "AccountID", "BankAccount.accountID", "account.accountID")
}

// extractBalanceSnapshot finds the before/after balances and transaction id
// on a transfer response.
func extractBalanceSnapshot(raw json.RawMessage) (before, after, txID string) {
	before = firstString(raw, "BalanceBefore", "TransactionDetails.BalanceBefore")
	after = firstString(raw, "BalanceAfter", "TransactionDetails.BalanceAfter")
	txID = firstString(raw, "TransactionID", "TransactionDetails.TransactionID")
	return before, after, txID
}

// extractOnboardResult finds the ids and PIN issued for a new customer.
func extractOnboardResult(raw json.RawMessage) (customerID, accountID, pin string) {
	customerID = firstString(raw, "CustomerID", "Customer.customerID")
	accountID = firstString(raw, "AccountID", "BankAccount.accountID")
	pin = firstString(raw, "PIN")
	return customerID, accountID, pin
}

func firstString(raw json.RawMessage, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(raw, p); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
