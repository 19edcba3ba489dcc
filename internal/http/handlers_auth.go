package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/middleware/auth"
	"budgetshop/internal/services"
	"budgetshop/internal/taxonomy"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := s.svc.Auth.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	// The account exists either way; a failed install only costs the
	// starter categories.
	if _, err := taxonomy.Install(ctx, s.svc.Categories, user.ID); err != nil {
		s.logger.WarnContext(ctx, "Failed to install default categories",
			"user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, user, err := s.svc.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrInvalidCredentials.Error()})
		return
	}
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.svc.Auth.Logout(c.Request.Context(), auth.CurrentToken(c)); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}
