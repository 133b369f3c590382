package api

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validatorInstance returns the shared validator. It caches struct metadata,
// so one instance serves every request.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// answerRequest is the body of POST /sessions/{id}/answer. Recognized is a
// pointer so an omitted field is told apart from false.
type answerRequest struct {
	Recognized *bool `json:"recognized" validate:"required"`
}
