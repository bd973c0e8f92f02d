package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		number := "1001"
		pin := "1234"

		beforeCreation := time.Now()
		acc, err := NewAccount(number, pin)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, acc)

		assert.Equal(t, number, acc.Number)
		assert.Equal(t, pin, acc.PIN)
		assert.Equal(t, int64(0), acc.Balance, "New accounts start with a zero balance")
		assert.Equal(t, 1, acc.Version, "Initial version should be 1")

		assert.WithinDuration(t, beforeCreation, acc.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond, "CreatedAt should be around the time of creation")
		assert.Equal(t, acc.CreatedAt, acc.UpdatedAt, "CreatedAt and UpdatedAt should match on creation")
	})

	t.Run("EmptyNumber", func(t *testing.T) {
		acc, err := NewAccount("", "1234")
		assert.ErrorIs(t, err, ErrEmptyNumber)
		assert.Nil(t, acc)
	})

	t.Run("InvalidPinFormat", func(t *testing.T) {
		for _, pin := range []string{"", "123", "12345", "12a4", "one2", " 123"} {
			acc, err := NewAccount("1001", pin)
			assert.ErrorIs(t, err, ErrInvalidPinFormat, "pin %q should be rejected", pin)
			assert.Nil(t, acc)
		}
	})
}

func TestValidPinFormat(t *testing.T) {
	assert.True(t, ValidPinFormat("0000"))
	assert.True(t, ValidPinFormat("9999"))
	assert.True(t, ValidPinFormat("0123"))

	assert.False(t, ValidPinFormat("123"))
	assert.False(t, ValidPinFormat("12345"))
	assert.False(t, ValidPinFormat("12.4"))
	assert.False(t, ValidPinFormat("١٢٣٤"), "Non-ASCII digits are not accepted")
}

func TestAccount_Deposit(t *testing.T) {
	t.Run("SuccessfulDeposit", func(t *testing.T) {
		acc := &Account{
			Number:    "1001",
			PIN:       "1234",
			Balance:   5000,
			Version:   1,
			CreatedAt: time.Now().Add(-time.Hour),
			UpdatedAt: time.Now().Add(-time.Hour),
		}
		depositAmount := int64(2000)
		initialBalance := acc.Balance
		initialVersion := acc.Version

		err := acc.Deposit(depositAmount)

		require.NoError(t, err)
		assert.Equal(t, initialBalance+depositAmount, acc.Balance)
		assert.Equal(t, initialVersion+1, acc.Version)
		assert.True(t, acc.UpdatedAt.After(acc.CreatedAt), "UpdatedAt should be after CreatedAt")
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		acc := &Account{Number: "1001", Balance: 5000, Version: 1}

		for _, amount := range []int64{0, -1, -5000} {
			err := acc.Deposit(amount)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Equal(t, int64(5000), acc.Balance, "Balance must not change on a rejected deposit")
			assert.Equal(t, 1, acc.Version)
		}
	})
}

func TestAccount_Withdraw(t *testing.T) {
	t.Run("SuccessfulWithdrawal", func(t *testing.T) {
		acc := &Account{
			Number:    "1001",
			PIN:       "1234",
			Balance:   10000,
			Version:   2,
			CreatedAt: time.Now().Add(-2 * time.Hour),
			UpdatedAt: time.Now().Add(-time.Minute),
		}
		withdrawalAmount := int64(3000)
		initialBalance := acc.Balance
		initialVersion := acc.Version

		err := acc.Withdraw(withdrawalAmount)

		require.NoError(t, err)
		assert.Equal(t, initialBalance-withdrawalAmount, acc.Balance)
		assert.Equal(t, initialVersion+1, acc.Version)
	})

	t.Run("WithdrawalToZeroIsAllowed", func(t *testing.T) {
		acc := &Account{Number: "1001", Balance: 1000, Version: 1}

		err := acc.Withdraw(1000)

		require.NoError(t, err)
		assert.Equal(t, int64(0), acc.Balance)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		acc := &Account{Number: "1001", Balance: 1000, Version: 1}

		err := acc.Withdraw(1001)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(1000), acc.Balance, "Balance must not change on a rejected withdrawal")
		assert.Equal(t, 1, acc.Version)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		acc := &Account{Number: "1001", Balance: 1000, Version: 1}

		err := acc.Withdraw(0)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		err = acc.Withdraw(-100)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestAccount_VerifyPin(t *testing.T) {
	acc := &Account{Number: "1001", PIN: "1234"}

	assert.NoError(t, acc.VerifyPin("1234"))
	assert.ErrorIs(t, acc.VerifyPin("4321"), ErrInvalidCredential)
	assert.ErrorIs(t, acc.VerifyPin(""), ErrInvalidCredential)
}

func TestAccount_ChangePin(t *testing.T) {
	t.Run("SuccessfulChange", func(t *testing.T) {
		acc := &Account{Number: "1001", PIN: "1234", Version: 1}

		err := acc.ChangePin("1234", "5678")

		require.NoError(t, err)
		assert.Equal(t, "5678", acc.PIN)
		assert.Equal(t, 2, acc.Version)
	})

	t.Run("WrongOldPin", func(t *testing.T) {
		acc := &Account{Number: "1001", PIN: "1234", Version: 1}

		err := acc.ChangePin("9999", "5678")

		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Equal(t, "1234", acc.PIN, "PIN must not change when the old pin is wrong")
	})

	t.Run("NewPinBadFormat", func(t *testing.T) {
		acc := &Account{Number: "1001", PIN: "1234", Version: 1}

		err := acc.ChangePin("1234", "567")

		assert.ErrorIs(t, err, ErrInvalidPinFormat)
		assert.Equal(t, "1234", acc.PIN)
	})

	t.Run("OldPinCheckedBeforeFormat", func(t *testing.T) {
		acc := &Account{Number: "1001", PIN: "1234", Version: 1}

		err := acc.ChangePin("9999", "bad")

		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestAccount_CanWithdraw(t *testing.T) {
	t.Run("CanWithdrawSufficientFunds", func(t *testing.T) {
		acc := &Account{Balance: 1000}
		assert.True(t, acc.CanWithdraw(500))
		assert.True(t, acc.CanWithdraw(1000))
	})

	t.Run("CannotWithdrawInsufficientFunds", func(t *testing.T) {
		acc := &Account{Balance: 1000}
		assert.False(t, acc.CanWithdraw(1001))
	})
}
