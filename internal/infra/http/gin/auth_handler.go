package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/dto"
	"airbrb/internal/app/middleware"
	authsvc "airbrb/internal/app/services/auth"
)

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

func (h AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthResponse{Token: result.Token, User: dto.MapUser(result.User)})
}

func (h AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{Token: result.Token, User: dto.MapUser(result.User)})
}

func (h AuthHandler) Logout(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		respondError(c, h.Logger, middleware.ErrUnauthenticated)
		return
	}
	if err := h.Service.Logout(c.Request.Context(), p.Token); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		respondError(c, h.Logger, middleware.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, dto.User{ID: p.ID, Email: p.Email, Name: p.Name, CreatedAt: p.CreatedAt})
}

var _ AuthHTTP = AuthHandler{}
