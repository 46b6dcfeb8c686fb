package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pricescan/backend/internal/domain"
)

// SearchService is the search pipeline the handler drives
type SearchService interface {
	Search(ctx context.Context, query string) (*domain.SearchResult, error)
}

// AuthService checks login credentials
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search SearchService
	auth   AuthService
}

// NewHandler creates a new HTTP handler. Either service may be nil; the
// matching endpoints then answer 503.
func NewHandler(search SearchService, auth AuthService) *Handler {
	return &Handler{search: search, auth: auth}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricescan-backend",
		"version": "1.0.0",
	})
}

// Search handles GET /search?q=
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search service not configured"})
		return
	}

	result, err := h.search.Search(c.Request.Context(), c.Query("q"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, domain.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Login handles POST /api/login
func (h *Handler) Login(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrAuthUnavailable.Error()})
		return
	}

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required."})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    gin.H{"username": user.Username},
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required."})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
	case errors.Is(err, domain.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password."})
	case errors.Is(err, domain.ErrAuthUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error."})
	}
}
