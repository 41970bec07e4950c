package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"plantaops/internal/apierror"
	"plantaops/internal/service"

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
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
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

// respondServiceError translates domain sentinel errors into HTTP statuses:
// state conflicts map to 409, broken business rules to 422, unknown
// resources to 404, anything else to 400 with the service message.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPartidaBloqueada),
		errors.Is(err, service.ErrConsumoYaLiberado),
		errors.Is(err, service.ErrCantidadInsuficiente):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrLoteInutilizable),
		errors.Is(err, service.ErrSinElaborados),
		errors.Is(err, service.ErrRangoFechasInvalido),
		errors.Is(err, service.ErrQANoResuelta),
		errors.Is(err, service.ErrMotivoFaltante),
		errors.Is(err, service.ErrTransicionQAInvalida),
		errors.Is(err, service.ErrUnidadDesconocida),
		errors.Is(err, service.ErrFraccionNoPermitida),
		errors.Is(err, service.ErrCategoriaObligatoria),
		errors.Is(err, service.ErrCantidadInvalida):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case strings.Contains(err.Error(), "no encontrad"):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
