package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fraction digits kept for amounts.
const MoneyPlaces = 2

// Money is a fixed-point monetary amount.
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// Cents converts minor units into Money.
func Cents(v int64) Money {
	return decimal.New(v, -MoneyPlaces)
}

// RoundMoney applies the single half-even rounding step used for line and total amounts.
func RoundMoney(m Money) Money {
	return m.RoundBank(MoneyPlaces)
}

// ToCents returns the amount in minor units after rounding.
func ToCents(m Money) int64 {
	return RoundMoney(m).Shift(MoneyPlaces).IntPart()
}
