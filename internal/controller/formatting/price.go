package formatting

import "github.com/shopspring/decimal"

// FormatPrice форматирует цену с двумя знаками
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2) + " ₽"
}

// FormatPriceShort форматирует цену без копеек если они равны 0
func FormatPriceShort(price decimal.Decimal) string {
	if price.Equal(price.Truncate(0)) {
		return price.StringFixed(0) + " ₽"
	}
	return FormatPrice(price)
}
