package web

import "github.com/go-playground/validator/v10"

// GetErrorMsg returns a readable suffix for a failed validation rule.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " is required"
	case "min":
		return " must be at least " + fe.Param()
	case "max":
		return " must be at most " + fe.Param()
	case "ne":
		return " must not be " + fe.Param()
	case "nefield":
		return " must differ from " + fe.Param()
	case "oneof":
		return " must be one of: " + fe.Param()
	case "accountpath":
		return " must be a colon separated account path"
	}

	return " is invalid"
}
