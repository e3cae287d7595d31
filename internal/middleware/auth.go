// Package middleware provides the HTTP middleware shared by the API:
// token authentication, request logging, metrics, tracing and rate limiting.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"usof/internal/config"
	"usof/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingToken = errors.New("authorization header required")
	errBadHeader    = errors.New("invalid authorization header format")
	errBadToken     = errors.New("invalid or expired token")
	errBadSubject   = errors.New("invalid user ID in token")
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadHeader
	}
	return parts[1], nil
}

// UserIDFromToken verifies an HMAC-signed token and returns its subject as a
// user ID. The role claim is not trusted; callers load the role from storage.
func UserIDFromToken(tokenString, secret string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errBadToken
	}

	// Subject claim per RFC 7519
	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, errBadSubject
	}
	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userIDVal == 0 {
		return 0, errBadSubject
	}
	return uint(userIDVal), nil
}

// OptionalAuth attaches the user ID when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected
// so that clients notice they are no longer signed in. Routes that need a
// caller enforce it further down the chain.
func OptionalAuth(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if errors.Is(err, errMissingToken) {
		return c.Next()
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
	}

	userID, err := UserIDFromToken(tokenString, cfg.JWTSecret)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
	}

	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return c.Next()
}
