package catalogs

import "math"

const (
	RUB = "5449016a4bdc2d6f028b456f"
	USD = "5696686a4bdc2da3298b456a"
	EUR = "569668774bdc2da2298b4568"
)

func IsMoney(tpl string) bool {
	switch tpl {
	case RUB, USD, EUR:
		return true
	}
	return false
}

// CurrencyTpl maps a search currency filter (1 RUB, 2 USD, 3 EUR) to its tpl.
func CurrencyTpl(filter int) string {
	switch filter {
	case 1:
		return RUB
	case 2:
		return USD
	case 3:
		return EUR
	}
	return ""
}

// InRoubles converts an amount of currency into roubles at handbook rate.
func (c *Catalogs) InRoubles(amount float64, currency string) float64 {
	if currency == RUB {
		return amount
	}
	rate, ok := c.Handbook.Price(currency)
	if !ok {
		return 0
	}
	return math.Round(amount * rate)
}

// FromRoubles converts roubles into currency at handbook rate.
func (c *Catalogs) FromRoubles(roubles float64, currency string) float64 {
	if currency == RUB {
		return roubles
	}
	rate, ok := c.Handbook.Price(currency)
	if !ok || rate == 0 {
		return 0
	}
	return math.Round(roubles / rate)
}
