package ledgerdelivery

import (
	"github.com/go-petr/receipt-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ValidAccountPath validates whether the field is a well formed account path.
var ValidAccountPath validator.Func = func(fl validator.FieldLevel) bool {
	if p, ok := fl.Field().Interface().(string); ok {
		return domain.ValidAccountPath(p)
	}
	return false
}
