package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "PLN", "1\u00a0234,50\u00a0zł"},
		{89900, "pln", "89\u00a0900,00\u00a0zł"},
		{999, "", "999,00\u00a0zł"},
		{1234567.891, "EUR", "1\u00a0234\u00a0567,89\u00a0€"},
		{-12.5, "PLN", "-12,50\u00a0zł"},
		{500, "JPY", "500\u00a0JPY"},
		{1234.5, "XXX", "1234.5 XXX"},
		{52900, "ABC", "52900 ABC"},
		{10, "zloty", "10 ZLOTY"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.amount, tc.code))
		})
	}
}

func TestPtr(t *testing.T) {
	assert.Equal(t, "—", Ptr(nil, "PLN"))
	v := 52900.0
	assert.Equal(t, "52\u00a0900,00\u00a0zł", Ptr(&v, "PLN"))
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "185 000", Thousands(185000))
	assert.Equal(t, "1 000 000", Thousands(1000000))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "-1 200", Thousands(-1200))
}
