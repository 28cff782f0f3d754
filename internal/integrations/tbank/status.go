package tbank

import "strings"

// Status is the tri-state business result read out of a well-formed
// response. Callers only act on StatusSuccess; the distinction between
// failure and indeterminate exists for logging.
type Status int

const (
	// StatusIndeterminate means the status field was absent or empty.
	StatusIndeterminate Status = iota
	// StatusSuccess means the field matched the operation's success literal.
	StatusSuccess
	// StatusFailure means the field held any other value.
	StatusFailure
)

// matcher selects the status field and the comparison for one operation.
// The success literals were observed per endpoint and differ in both field
// and casing ("success", "Success", an "invocation successful" substring);
// the inconsistency is the gateway's, not ours, so no uniform convention is
// assumed here.
type matcher struct {
	field func(respHeader) string
	match func(string) bool
}

var (
	// requestOTP reports success in ErrorDetails, lowercase.
	otpRequestOK = matcher{fromErrorDetails, exact("success")}
	// loginCustomer reports success in ErrorDetails, capitalized.
	loginOK = matcher{fromErrorDetails, exact("Success")}
	// creditTransfer, addBeneficiary and createBankAccount put an opaque
	// status sentence in ErrorText; only the substring is stable.
	invocationOK = matcher{fromErrorText, contains("invocation successful")}
)

// classify compares a response header against one operation's matcher.
// Comparisons are case-sensitive.
func classify(h respHeader, m matcher) Status {
	v := m.field(h)
	if v == "" {
		return StatusIndeterminate
	}
	if m.match(v) {
		return StatusSuccess
	}
	return StatusFailure
}

func fromErrorDetails(h respHeader) string { return h.ErrorDetails }
func fromErrorText(h respHeader) string    { return h.ErrorText }

func exact(want string) func(string) bool {
	return func(got string) bool { return got == want }
}

func contains(want string) func(string) bool {
	return func(got string) bool { return strings.Contains(got, want) }
}
