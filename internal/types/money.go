// README: Common money value object used across modules.
package types

// CurrencyIDR is the only currency the rental backend bills in.
const CurrencyIDR = "IDR"

type Money struct {
	Amount   int64
	Currency string
}

func IDR(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyIDR}
}
