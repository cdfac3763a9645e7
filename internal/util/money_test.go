package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  error
	}{
		{"12", 1200, nil},
		{"12.5", 1250, nil},
		{"12.50", 1250, nil},
		{"0.01", 1, nil},
		{"0.00", 0, nil},
		{".5", 50, nil},
		{"7.", 700, nil},
		{" 3.10 ", 310, nil},
		{"+4", 400, nil},
		{"0", 0, nil},
		{"000012.34", 1234, nil},
		{"999999999.99", 99999999999, nil},
		{"", 0, ErrAmountNotNumber},
		{"abc", 0, ErrAmountNotNumber},
		{"1.2.3", 0, ErrAmountNotNumber},
		{".", 0, ErrAmountNotNumber},
		{"1,234.56", 0, ErrAmountNotNumber},
		{"-5", 0, ErrAmountNegative},
		{"-x", 0, ErrAmountNotNumber},
		{"1.234", 0, ErrAmountDecimals},
		{"1.500", 0, ErrAmountDecimals},
		{"0.000", 0, ErrAmountDecimals},
		{"1000000000", 0, ErrAmountWholeDigits},
		{"1000000000.5", 0, ErrAmountWholeDigits},
		{"1000000000.00", 0, ErrAmountTotalDigits},
		{"123456789012", 0, ErrAmountTotalDigits},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount_ErrorOrder(t *testing.T) {
	// too many digits in total is reported before too many decimal places
	_, err := ParseAmount("1234567890.123")
	assert.ErrorIs(t, err, ErrAmountTotalDigits)
	_, err = ParseAmount("12345678.123")
	assert.ErrorIs(t, err, ErrAmountDecimals)
	assert.Equal(t, "Ensure that there are no more than 9 digits before the decimal point.", ErrAmountWholeDigits.Error())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "12.34", FormatAmount(1234))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "-3.50", FormatAmount(-350))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00 EUR", FormatMoney(0, "EUR"))
	assert.Equal(t, "1,234.56 EUR", FormatMoney(123456, "EUR"))
	assert.Equal(t, "1,000,000.00 USD", FormatMoney(100000000, "USD"))
	assert.Equal(t, "-999.99 GBP", FormatMoney(-99999, "GBP"))
}
