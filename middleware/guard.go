package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portalgate "github.com/MrEthical07/portalgate"
)

const checkResultKey = "portalgate.check"

// CheckResultFromContext returns the result stored by Guard.
func CheckResultFromContext(c *gin.Context) (portalgate.CheckResult, bool) {
	v, ok := c.Get(checkResultKey)
	if !ok {
		return portalgate.CheckResult{}, false
	}
	res, ok := v.(portalgate.CheckResult)
	return res, ok
}

// Guard admits requests carrying a live session token whose ip and mac query
// parameters match the session bindings. Everything else gets
// 401 "unauthorized\n".
func Guard(engine *portalgate.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			unauthorized(c)
			return
		}

		res, ok := engine.Check(c.Request.Context(), TokenFromRequest(c.Request), c.Query("ip"), c.Query("mac"))
		if !ok {
			unauthorized(c)
			return
		}

		c.Set(checkResultKey, res)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Data(http.StatusUnauthorized, "text/plain; charset=utf-8", []byte("unauthorized\n"))
	c.Abort()
}
