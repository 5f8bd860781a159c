package handlers

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveDecimal(t *testing.T) {
	v := validator.New()
	require.NoError(t, registerOn(v))

	type amount struct {
		Value decimal.Decimal `json:"value" validate:"dpositive"`
	}

	assert.NoError(t, v.Struct(amount{Value: decimal.RequireFromString("0.00000001")}))

	err := v.Struct(amount{Value: decimal.Zero})
	require.Error(t, err)
	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "value", fieldErrs[0].Field())
	assert.Equal(t, "dpositive", fieldErrs[0].Tag())

	assert.Error(t, v.Struct(amount{Value: decimal.RequireFromString("-1")}))
}
