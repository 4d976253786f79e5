package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/models"
	"github.com/posko-pajak/api-go/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB     *gorm.DB
	Tokens *utils.TokenIssuer
}

func NewAuthController(db *gorm.DB, tokens *utils.TokenIssuer) *AuthController {
	RegisterValidators()
	return &AuthController{DB: db, Tokens: tokens}
}

type userResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Roles: user.RoleNames()}
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=255"`
		Email    string `json:"email" binding:"required,email,max=255"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existing int64
	if err := ac.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		respondError(c, err)
		return
	}
	if existing > 0 {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "Validation failed",
			Errors: map[string]string{"email": "email has already been taken"},
		})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Could not hash password"})
		return
	}

	var role models.Role
	if err := ac.DB.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashedPassword),
		Roles:    []models.Role{role},
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID}).Info("user registered")
	ac.respondWithTokens(c, http.StatusCreated, &user, "User registered successfully")
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	var user models.User
	err := ac.DB.Preload("Roles").Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	}

	ac.respondWithTokens(c, http.StatusOK, &user, "Login successful")
}

var errRefreshTokenSpent = errors.New("refresh token unknown or already used")

// claimRefreshToken deletes the stored token row and returns it. Only one
// caller can claim a given token; the rest get errRefreshTokenSpent.
func claimRefreshToken(db *gorm.DB, token string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := db.Where("token = ?", token).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errRefreshTokenSpent
	}
	if err != nil {
		return nil, err
	}

	result := db.Where("id = ? AND token = ?", stored.ID, token).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, errRefreshTokenSpent
	}
	return &stored, nil
}

// RefreshToken rotates the refresh token and issues a new access token.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	if _, err := ac.Tokens.Parse(input.RefreshToken, utils.RefreshTokenType); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid refresh token"})
		return
	}

	stored, err := claimRefreshToken(ac.DB, input.RefreshToken)
	if errors.Is(err, errRefreshTokenSpent) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid refresh token"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if time.Now().After(stored.ExpirationDate) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Refresh token expired"})
		return
	}

	var user models.User
	if err := ac.DB.Preload("Roles").First(&user, "id = ?", stored.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not found"})
		return
	}

	ac.respondWithTokens(c, http.StatusOK, &user, "Token refreshed")
}

func (ac *AuthController) Me(c *gin.Context) {
	actor := utils.GetActor(c)

	var user models.User
	if err := ac.DB.Preload("Roles").First(&user, "id = ?", actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: toUserResponse(&user)})
}

// Logout revokes the given refresh token. Unknown tokens are not an error.
func (ac *AuthController) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	actor := utils.GetActor(c)
	result := ac.DB.Where("token = ? AND user_id = ?", input.RefreshToken, actor.ID).Delete(&models.RefreshToken{})
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Logged out successfully"})
}

func (ac *AuthController) respondWithTokens(c *gin.Context, status int, user *models.User, message string) {
	accessToken, err := ac.Tokens.AccessToken(user.ID, user.RoleNames())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Could not generate token"})
		return
	}

	refreshToken, expires, err := ac.Tokens.RefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Could not generate token"})
		return
	}

	if err := ac.DB.Omit("User").Create(&models.RefreshToken{
		UserID:         user.ID,
		Token:          refreshToken,
		ExpirationDate: expires,
	}).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, gin.H{
		"success":       true,
		"message":       message,
		"token_type":    "Bearer",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ac.Tokens.AccessTTL.Seconds()),
		"user":          toUserResponse(user),
	})
}
