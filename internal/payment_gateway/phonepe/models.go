package phonepe

// CodePaymentSuccess is the only outcome code the gateway sends that maps
// to an internal success; every other code is treated as a failure.
const CodePaymentSuccess = "PAYMENT_SUCCESS"

type PaymentInstrument struct {
	Type string `json:"type"`
}

// PayRequest is the payload encoded into the base64 request body. Amount
// is in paise.
type PayRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     PaymentInstrument `json:"paymentInstrument"`
}

type redirectInfo struct {
	URL string `json:"url"`
}

type instrumentResponse struct {
	RedirectInfo redirectInfo `json:"redirectInfo"`
}

type payResponseData struct {
	MerchantTransactionID string             `json:"merchantTransactionId"`
	InstrumentResponse    instrumentResponse `json:"instrumentResponse"`
}

type PayResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    payResponseData `json:"data"`
}

// PayResult is what the initiator needs back: where to send the user.
type PayResult struct {
	RedirectURL string
}

// CallbackData is the decoded body of a callback envelope.
type CallbackData struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
}

// CallbackEnvelope is the decoded base64 response the gateway posts to the
// callback endpoint.
type CallbackEnvelope struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    CallbackData `json:"data"`
}
