package types

import "github.com/shopspring/decimal"

// CurrencyConfig holds the display symbol and the number of decimal places
// used when converting amounts to the currency's minor unit.
type CurrencyConfig struct {
	Symbol    string
	Precision int32
}

// CURRENCY_CONFIG is a map of 3 digit ISO currency codes (lowercase) to
// their config. Zero-decimal currencies carry precision 0.
var CURRENCY_CONFIG = map[string]CurrencyConfig{
	"usd": {Symbol: "$", Precision: 2},
	"eur": {Symbol: "€", Precision: 2},
	"gbp": {Symbol: "£", Precision: 2},
	"aud": {Symbol: "AU$", Precision: 2},
	"cad": {Symbol: "CA$", Precision: 2},
	"chf": {Symbol: "CHF", Precision: 2},
	"sek": {Symbol: "kr", Precision: 2},
	"nok": {Symbol: "kr", Precision: 2},
	"inr": {Symbol: "₹", Precision: 2},
	"brl": {Symbol: "R$", Precision: 2},
	"jpy": {Symbol: "¥", Precision: 0},
	"krw": {Symbol: "₩", Precision: 0},
}

var defaultCurrencyConfig = CurrencyConfig{Symbol: "", Precision: 2}

// GetCurrencyConfig returns the config for a given currency code
func GetCurrencyConfig(code string) CurrencyConfig {
	if config, ok := CURRENCY_CONFIG[code]; ok {
		return config
	}
	return defaultCurrencyConfig
}

// GetCurrencyPrecision returns the number of decimal places for a currency
func GetCurrencyPrecision(code string) int32 {
	return GetCurrencyConfig(code).Precision
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if config, ok := CURRENCY_CONFIG[code]; ok {
		return config.Symbol
	}
	return code
}

// AmountToCents converts an amount in main currency units to the currency's
// minor unit, rounding half up. All fee amounts are stored this way so money
// never drifts between computations.
func AmountToCents(amount decimal.Decimal, currency string) int64 {
	precision := GetCurrencyPrecision(currency)
	factor := decimal.New(1, precision)
	return amount.Mul(factor).Round(0).IntPart()
}
