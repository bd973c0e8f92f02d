package account

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPinFormat  = errors.New("pin must be exactly 4 digits")
	ErrInvalidCredential = errors.New("pin does not match")
	ErrEmptyNumber       = errors.New("account number cannot be empty")
)

// Account represents a bank account identified by its account number.
// The PIN is an opaque credential; the balance is kept in the smallest
// currency unit and never goes negative.
type Account struct {
	Number    string    `json:"account_number"`
	PIN       string    `json:"-"`
	Balance   int64     `json:"balance"`
	Version   int       `json:"version"` // For optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates a new account with a zero balance
func NewAccount(number, pin string) (*Account, error) {
	if number == "" {
		return nil, ErrEmptyNumber
	}
	if !ValidPinFormat(pin) {
		return nil, ErrInvalidPinFormat
	}

	now := time.Now()
	return &Account{
		Number:    number,
		PIN:       pin,
		Balance:   0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidPinFormat reports whether pin is exactly 4 ASCII digits
func ValidPinFormat(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Deposit adds the specified amount to the account balance
func (a *Account) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Withdraw subtracts the specified amount from the account balance
func (a *Account) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// VerifyPin checks the supplied credential against the stored one
func (a *Account) VerifyPin(pin string) error {
	if a.PIN != pin {
		return ErrInvalidCredential
	}
	return nil
}

// ChangePin replaces the stored credential after validating the old one
// and the format of the new one
func (a *Account) ChangePin(oldPin, newPin string) error {
	if err := a.VerifyPin(oldPin); err != nil {
		return err
	}
	if !ValidPinFormat(newPin) {
		return ErrInvalidPinFormat
	}

	a.PIN = newPin
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanWithdraw checks if the account has sufficient funds for a withdrawal
func (a *Account) CanWithdraw(amount int64) bool {
	return a.Balance >= amount
}
