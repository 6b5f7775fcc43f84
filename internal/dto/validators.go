package dto

import (
	"errors"

	dom "taskhub/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the task_status and task_priority tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return dom.Status(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
		return dom.Priority(fl.Field().String()).Valid()
	})
}
