// Package money форматирует цены по польским правилам: "1 234,50 zł".
package money

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

const nbsp = "\u00a0"

// символы, которые в pl-PL ставятся после суммы; остальные валюты — ISO-кодом
var symbols = map[string]string{
	"PLN": "zł",
	"EUR": "€",
	"USD": "USD",
	"GBP": "GBP",
	"CZK": "Kč",
	"CHF": "CHF",
}

// Format: сумма с группировкой NBSP, десятичной запятой и символом валюты.
// Пустой код — PLN. Неизвестный или служебный код (XXX) — "<amount> <CODE>".
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "PLN"
	}
	unit, err := currency.ParseISO(code)
	if err != nil || unit == currency.XXX || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Fallback(amount, code)
	}
	scale, _ := currency.Standard.Rounding(unit)

	sym, ok := symbols[unit.String()]
	if !ok {
		sym = unit.String()
	}
	return formatNumber(amount, scale) + nbsp + sym
}

// Fallback — сырое число и код, как есть.
func Fallback(amount float64, code string) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + code
}

// Ptr — для необязательной цены: nil -> "—".
func Ptr(amount *float64, code string) string {
	if amount == nil {
		return "—"
	}
	return Format(*amount, code)
}

// Thousands группирует целое число пробелами: 185000 -> "185 000".
func Thousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := group(strconv.FormatInt(n, 10), " ")
	if neg {
		return "-" + s
	}
	return s
}

func formatNumber(amount float64, scale int) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', scale, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString(group(intPart, nbsp))
	if frac != "" {
		b.WriteString(",")
		b.WriteString(frac)
	}
	return b.String()
}

// group вставляет sep каждые три цифры справа.
func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
