package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
)

type Service struct {
	identityRepository IdentityRepository
	config             Config
}

func NewService(identityRepository IdentityRepository, config Config) *Service {
	return &Service{
		identityRepository: identityRepository,
		config:             config,
	}
}

func (s *Service) GenerateJWT(userID, displayName, email, role string) (string, int64, error) {
	if s.config.JWTSecret == "" {
		return "", 0, fmt.Errorf("jwt configuration is missing")
	}

	expiresAt := time.Now().Add(time.Duration(s.config.JWTExpirationHours) * time.Hour)

	claims := Claims{
		UserID:      userID,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresAt.Unix(), nil
}

func (s *Service) ValidateJWT(tokenString string) (*Claims, error) {
	if s.config.JWTSecret == "" {
		return nil, fmt.Errorf("jwt configuration is missing")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ValidateRequest resolves the caller's claims from either the static
// API token (machine clients act as admin) or a Bearer JWT.
func (s *Service) ValidateRequest(ctx *fasthttp.RequestCtx) (*Claims, error) {
	apiToken := string(ctx.Request.Header.Peek(headerAPIToken))
	if apiToken != "" && s.config.APIToken != "" && apiToken == s.config.APIToken {
		return &Claims{DisplayName: "api-token", Role: RoleAdmin}, nil
	}

	authHeader := ctx.Request.Header.Peek(headerAuthorization)
	if authHeader == nil {
		return nil, fmt.Errorf("missing authorization header")
	}

	tokenString, err := extractJWTFromAuthorizationHeader(string(authHeader))
	if err != nil {
		return nil, fmt.Errorf("invalid authorization header: %w", err)
	}

	return s.ValidateJWT(tokenString)
}

func extractJWTFromAuthorizationHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != headerBearer {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
