package server

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	portalgate "github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/middleware"
)

const (
	headerPortalUser      = "X-Portal-User"
	headerPortalAssertion = "X-Portal-Assertion"

	textPlain = "text/plain; charset=utf-8"
)

// loginResponse keeps field order stable on the wire.
type loginResponse struct {
	OK        bool   `json:"ok"`
	Token     string `json:"token,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	Err       string `json:"err,omitempty"`
}

func handleHealth(c *gin.Context) {
	c.Data(http.StatusOK, textPlain, []byte("ok\n"))
}

func (s *Server) handlePortal(c *gin.Context) {
	path := filepath.Join(s.webRoot, "portal.html")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>portal.html missing</h1>"))
		return
	}
	c.File(path)
}

func (s *Server) staticDir() string {
	return filepath.Join(s.webRoot, "static")
}

func (s *Server) handleLogin(c *gin.Context) {
	res, err := s.engine.Login(c.Request.Context(), portalgate.LoginRequest{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		IP:       c.PostForm("ip"),
		MAC:      c.PostForm("mac"),
	})
	if err != nil {
		status, msg := loginError(err)
		if status >= http.StatusInternalServerError {
			s.logger.ErrorContext(c.Request.Context(), "login failed",
				slog.String("request_id", middleware.RequestID(c)),
				slog.Any("error", err))
		}
		c.JSON(status, loginResponse{OK: false, Err: msg})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		OK:        true,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
	})
}

func loginError(err error) (int, string) {
	switch {
	case errors.Is(err, portalgate.ErrInvalidCredentials):
		return http.StatusUnauthorized, "bad credentials"
	case errors.Is(err, portalgate.ErrCredentialBackend):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleCheck runs behind middleware.Guard, so reaching it means allow.
func handleCheck(c *gin.Context) {
	res, _ := middleware.CheckResultFromContext(c)
	c.Header(headerPortalUser, res.Username)
	if res.Assertion != "" {
		c.Header(headerPortalAssertion, res.Assertion)
	}
	c.Data(http.StatusOK, textPlain, []byte("ok\n"))
}

func (s *Server) handleLogout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c.Request); token != "" {
		s.engine.Logout(c.Request.Context(), token)
	}
	c.JSON(http.StatusOK, loginResponse{OK: true})
}
