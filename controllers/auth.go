package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"research-review-api/middleware"
	"research-review-api/models"
	"research-review-api/services"
	"research-review-api/utils"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// AuthController issues tokens and serves the caller's profile.
type AuthController struct {
	users    services.UserStore
	secret   string
	tokenTTL time.Duration
	logger   zerolog.Logger
}

func NewAuthController(users services.UserStore, secret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthController {
	return &AuthController{users: users, secret: secret, tokenTTL: tokenTTL, logger: logger}
}

// Login handles user authentication
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest

	// Bind request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(utils.SanitizeInput(req.Email))
	user, err := a.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		var nf *services.NotFoundError
		if !errors.As(err, &nf) {
			a.logger.Error().Err(err).Msg("load user for login")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := middleware.GenerateToken(*user, a.secret, a.tokenTTL)
	if err != nil {
		a.logger.Error().Err(err).Int("user_id", user.UserID).Msg("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		User:    *user,
		Message: "Login successful",
	})
}

// GetProfile returns current user profile
func (a *AuthController) GetProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := a.users.GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
