package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/wekeepgrowing/semo-credits/pkg/errors"
)

// AuthUser is the purchase owner taken from a verified Supabase token
type AuthUser struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

type contextKey string

const userContextKey contextKey = "authenticated_user"

// Rejection reasons returned next to the UNAUTHENTICATED code
const (
	ReasonMissingHeader = "MISSING_AUTH_HEADER"
	ReasonBadFormat     = "INVALID_AUTH_FORMAT"
	ReasonInvalidToken  = "INVALID_TOKEN"
	ReasonInvalidClaims = "INVALID_CLAIMS"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string
}

// rejection is why a request could not be authenticated
type rejection struct {
	reason  string
	message string
	err     error
}

// JWTMiddleware verifies the HS256 bearer token and stores its subject as the owner id.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(req.URL.Path, skipPath) {
					return next(c)
				}
			}

			user, rej := authenticate(req.Header.Get("Authorization"), []byte(config.Secret))
			if rej != nil {
				config.Logger.Warn("Request not authenticated",
					zap.String("reason", rej.reason),
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.Error(rej.err))

				status, body := apperrors.ToHTTPBody(
					apperrors.NewAppError(apperrors.ErrUnauthenticated, rej.message, rej.err))
				body["reason"] = rej.reason
				return c.JSON(status, body)
			}

			c.SetRequest(req.WithContext(WithUser(req.Context(), user)))
			c.Set("user_id", user.UserID.String())

			config.Logger.Debug("User authenticated",
				zap.String("user_id", user.UserID.String()),
				zap.String("path", req.URL.Path))
			return next(c)
		}
	}
}

func authenticate(authHeader string, secret []byte) (*AuthUser, *rejection) {
	if authHeader == "" {
		return nil, &rejection{reason: ReasonMissingHeader, message: "Authorization header required"}
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return nil, &rejection{reason: ReasonBadFormat, message: "Expected: Bearer <token>"}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, &rejection{reason: ReasonInvalidToken, message: "Invalid or expired token", err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, &rejection{reason: ReasonInvalidClaims, message: "Invalid token claims"}
	}

	subject, _ := claims.GetSubject()
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, &rejection{reason: ReasonInvalidClaims, message: "Token subject must be a user id", err: err}
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &AuthUser{UserID: userID, Email: email, Role: role}, nil
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user found in context")
	}
	return user, nil
}

// WithUser returns ctx carrying user, as JWTMiddleware stores it
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
