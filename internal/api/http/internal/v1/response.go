package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func errorResponse(c *gin.Context, status int, code ErrorCode) {
	c.AbortWithStatusJSON(status, getErrorStruct(code))
}

func validationErrorResponse(c *gin.Context, err error) {
	response := ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: ValidationErrorMessage,
		Errors:       []ValidationError{},
	}

	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		for _, ferr := range verr {
			response.Errors = append(response.Errors, ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param())})
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func msgForTag(tag string, value string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "cachetag":
		return "must be a lowercase cache tag such as regions or regions-<cache id>"
	case "max":
		return fmt.Sprintf("must be at most %v characters", value)
	}
	return tag
}
