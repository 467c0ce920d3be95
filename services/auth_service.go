// services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chess-wager-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	DB        *gorm.DB
	Lichess   *LichessClient
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, lichess *LichessClient, jwtSecret string) *AuthService {
	return &AuthService{DB: db, Lichess: lichess, jwtSecret: []byte(jwtSecret)}
}

// Register creates an account with empty balances.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username and email are required"})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "password must be at least 8 characters"})
	}

	var count int64
	if err := s.DB.Model(&models.Account{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username or email already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to hash password"})
	}

	acct := models.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.DB.Create(&acct).Error; err != nil {
		log.Printf("DB Error creating account: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create account"})
	}

	token, err := s.signToken(acct.ID, acct.IsAdmin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token, "account": acct})
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var acct models.Account
	err := s.DB.First(&acct, "email = ?", strings.TrimSpace(strings.ToLower(req.Email))).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		// same answer for unknown email and wrong password
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := s.signToken(acct.ID, acct.IsAdmin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.JSON(fiber.Map{"token": token, "account": acct})
}

func (s *AuthService) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var acct models.Account
	if err := s.DB.First(&acct, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fmt.Errorf("%w: account", ErrNotFound))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(acct)
}

// LinkLichess verifies the handle exists on Lichess, then stores it. Both
// participants need a linked handle before a challenge can be accepted —
// result verification maps game sides through it.
func (s *AuthService) LinkLichess(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Handle string `json:"handle" form:"handle"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Handle = strings.TrimSpace(req.Handle)
	if req.Handle == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "handle is required"})
	}

	profile, err := s.Lichess.FetchUser(c.Context(), req.Handle)
	if err != nil {
		return fail(c, err)
	}

	var taken int64
	if err := s.DB.Model(&models.Account{}).
		Where("LOWER(lichess_handle) = ? AND id <> ?", strings.ToLower(profile.Username), userID).
		Count(&taken).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if taken > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "handle already linked to another account"})
	}

	updates := map[string]interface{}{
		"lichess_handle": profile.Username, // canonical casing from Lichess
		"lichess_rating": profile.BlitzRating,
	}
	if err := s.DB.Model(&models.Account{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		log.Printf("DB Error linking lichess handle: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to link handle"})
	}

	return c.JSON(fiber.Map{
		"message":        "lichess account linked",
		"lichess_handle": profile.Username,
		"lichess_rating": profile.BlitzRating,
	})
}

func (s *AuthService) signToken(userID string, isAdmin bool) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}
