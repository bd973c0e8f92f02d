// Package protocol defines the wire-level request and response shapes
// exchanged with clients. The transport delivers one decoded Request per
// client turn and expects exactly one Response back.
package protocol

// Command tags accepted on the wire
const (
	CmdWithdraw      = "withdraw"
	CmdDeposit       = "deposit"
	CmdBalance       = "balance"
	CmdChangePin     = "change_pin"
	CmdLogin         = "login"
	CmdCreateAccount = "create_account"
	CmdTransfer      = "transfer"
	CmdEndSession    = "end_session"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Machine-readable error codes carried alongside the human message
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeInvalidPinFormat  = "INVALID_PIN_FORMAT"
	CodeMalformedRequest  = "MALFORMED_REQUEST"
	CodeNotAuthenticated  = "NOT_AUTHENTICATED"
	CodeResourceBusy      = "RESOURCE_BUSY"
	CodeIOFailure         = "IO_FAILURE"
)

// Request is a single decoded client command. Field presence depends on
// the command; the dispatcher validates shape before routing.
type Request struct {
	Command       string `json:"command"`
	AccountNumber string `json:"account_number,omitempty"`
	FromAccount   string `json:"from_account,omitempty"`
	ToAccount     string `json:"to_account,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	PIN           string `json:"pin,omitempty"`
	OldPIN        string `json:"old_pin,omitempty"`
	NewPIN        string `json:"new_pin,omitempty"`
}

// Response is the single reply for a request. Status is "success" or
// "error"; Code is set only on errors.
type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK builds a success response
func OK(message string) *Response {
	return &Response{Status: StatusSuccess, Message: message}
}

// OKWithData builds a success response carrying structured data
func OKWithData(message string, data interface{}) *Response {
	return &Response{Status: StatusSuccess, Message: message, Data: data}
}

// Error builds an error response with a machine-readable code
func Error(code, message string) *Response {
	return &Response{Status: StatusError, Code: code, Message: message}
}
