package httpapi

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

var validate = validator.New()

// bindAndValidate binds the JSON body and runs go-playground/validator tags.
// An empty body leaves req at its zero value when allowEmpty is set.
// Returns false after writing the error response; the caller should return immediately.
func bindAndValidate(c *gin.Context, req interface{}, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			respondError(c, apperrors.ErrValidation("invalid JSON body").Wrap(err))
			return false
		}
	}
	if err := validate.Struct(req); err != nil {
		appErr := apperrors.ErrValidation("request validation failed")
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				appErr.WithDetail(fe.Field(), fe.Tag())
			}
		}
		respondError(c, appErr)
		return false
	}
	return true
}
