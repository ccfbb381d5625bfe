package handler

import (
	"errors"
	"net/http"
	"reflect"

	"parkgate/internal/apierror"
	"parkgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError maps business errors to HTTP statuses. Anything not in
// the taxonomy becomes a generic 500 via the error-handler middleware.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPaymentRecordMissing):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrSlotInactive),
		errors.Is(err, service.ErrSlotOccupied),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrShiftAlreadyOpen),
		errors.Is(err, service.ErrNoOpenShift),
		errors.Is(err, service.ErrPaymentAlreadyExists):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNotesRequired),
		errors.Is(err, service.ErrPaymentUnrecoverable):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, service.ErrEmailUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
