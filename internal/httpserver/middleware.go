package httpserver

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/coupon"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCtxKey = "sessionID"
)

func sessionMiddleware(sessions SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessions.Parse(c.GetHeader(sessionHeader))
		if err != nil {
			writeError(c, domain.Validation(domain.CodeInvalidRequest, "missing or invalid "+sessionHeader+" header"))
			c.Abort()
			return
		}
		c.Set(sessionCtxKey, id)
		c.Header(sessionHeader, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionCtxKey)
}

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators adds the couponcode rule to gin's validator engine.
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		validatorsErr = v.RegisterValidation("couponcode", func(fl validator.FieldLevel) bool {
			_, err := coupon.NormalizeCode(fl.Field().String())
			return err == nil
		})
	})
	return validatorsErr
}
