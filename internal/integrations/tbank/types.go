package tbank

// Field names in this file use the gateway's exact external spelling
// (camelCase mixed with domain-specific capitalization). The mapping is a
// wire-compatibility requirement, not a style choice.

// requestHeader identifies the operation and the caller's credentials. It is
// JSON-serialized into the Header query parameter on every call.
type requestHeader struct {
	ServiceName string `json:"serviceName"`
	UserID      string `json:"userID,omitempty"`
	PIN         string `json:"PIN,omitempty"`
	OTP         string `json:"OTP,omitempty"`
}

// respHeader is the gateway's status triple. ErrorText carries successful
// status sentences as well as errors.
type respHeader struct {
	ErrorText     string `json:"ErrorText"`
	ErrorDetails  string `json:"ErrorDetails"`
	GlobalErrorID string `json:"GlobalErrorID"`
}

type accountData struct {
	AccountID         string `json:"accountID"`
	ProductID         string `json:"productID"`
	Balance           string `json:"balance"`
	Currency          string `json:"currency"`
	CurrentStatus     string `json:"currentStatus"`
	InterestRate      string `json:"interestRate"`
	ParentAccountFlag string `json:"parentAccountFlag"`
	HomeBranch        string `json:"homeBranch"`
	AccountOpenDate   string `json:"accountOpenDate"`
	OfficerID         string `json:"officerID"`
}

// accountsResponse holds the getCustomerAccounts payload. The account field
// is a single object when the customer has one account and an array
// otherwise; oneOrMany absorbs both shapes.
type accountsResponse struct {
	Header      respHeader `json:"ServiceRespHeader"`
	AccountList struct {
		Account oneOrMany[accountData] `json:"account"`
	} `json:"AccountList"`
}

type beneficiaryData struct {
	BeneficiaryID string `json:"beneficiaryID"`
	AccountID     string `json:"accountID"`
	Description   string `json:"description"`
}

// beneficiariesResponse has the same single-vs-array ambiguity as accounts.
type beneficiariesResponse struct {
	Header          respHeader `json:"ServiceRespHeader"`
	BeneficiaryList struct {
		Beneficiary oneOrMany[beneficiaryData] `json:"beneficiary"`
	} `json:"BeneficiaryList"`
}

type customerDetailsResponse struct {
	Header      respHeader `json:"ServiceRespHeader"`
	CDMCustomer struct {
		GivenName  string `json:"givenName"`
		FamilyName string `json:"familyName"`
		Customer   struct {
			CustomerID string `json:"customerID"`
		} `json:"customer"`
	} `json:"CDMCustomer"`
}

type balanceRecord struct {
	YearMonth string `json:"Year_Month"`
	Balance   string `json:"Balance"`
}

type balanceTrendResponse struct {
	Header          respHeader               `json:"ServiceRespHeader"`
	MonthEndBalance oneOrMany[balanceRecord] `json:"MonthEndBalance"`
	CurrentMonth    balanceRecord            `json:"CurrentMonth"`
}

type transferContent struct {
	AccountFrom                string `json:"accountFrom"`
	AccountTo                  string `json:"accountTo"`
	TransactionAmount          string `json:"transactionAmount"`
	TransactionReferenceNumber string `json:"transactionReferenceNumber"`
	Narrative                  string `json:"narrative"`
}

type addBeneficiaryContent struct {
	AccountID   string `json:"accountID"`
	Description string `json:"description"`
}

type createAccountContent struct {
	ProductID string `json:"productID"`
}

type onboardCustomerContent struct {
	ServiceName     string `json:"serviceName"`
	ICNumber        string `json:"IC_number"`
	FamilyName      string `json:"familyName"`
	GivenName       string `json:"givenName"`
	DateOfBirth     string `json:"dateOfBirth"`
	Gender          string `json:"gender"`
	Occupation      string `json:"occupation"`
	StreetAddress   string `json:"streetAddress"`
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	PostalCode      string `json:"postalCode"`
	CountryCode     string `json:"countryCode"`
	MobileNumber    string `json:"mobileNumber"`
	PreferredUserID string `json:"preferredUserID"`
	Currency        string `json:"currency"`
	BankID          string `json:"bankID"`
}
