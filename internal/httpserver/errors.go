package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"appcheckout/internal/domain"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindState:
		return http.StatusConflict
	case domain.KindCollaborator:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	de := domain.AsError(err)
	c.JSON(statusFor(de.Kind), gin.H{"error": errorBody{
		Kind:    string(de.Kind),
		Code:    de.Code,
		Message: de.Message,
	}})
}

// bindError maps request binding failures onto validation errors.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "couponcode" {
				return domain.ErrInvalidCoupon
			}
		}
		return domain.Validation(domain.CodeInvalidRequest, "invalid "+verrs[0].Field())
	}
	return domain.Validation(domain.CodeInvalidRequest, "invalid request body")
}
