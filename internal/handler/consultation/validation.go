package consultation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/consult-api/internal/model"
)

// RegisterValidators installs the custom binding validations used by the
// consultation payloads. Call once at startup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("priority", validPriority)
	}
}

func validPriority(fl validator.FieldLevel) bool {
	switch model.Priority(fl.Field().String()) {
	case "", model.PriorityHigh, model.PriorityNormal, model.PriorityLow:
		return true
	}
	return false
}
