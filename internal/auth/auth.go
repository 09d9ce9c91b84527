package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	headerAuthorization = "Authorization"
	headerAPIToken      = "X-Api-Token"
	headerBearer        = "Bearer"

	RoleAdmin  = "admin"
	RoleViewer = "viewer"
	RoleGuest  = "guest"
)

type Config struct {
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
	APIToken           string `mapstructure:"api_token"`
}

// Identity is a login credential bound to a user. Admins are
// pre-registered with provider "password"; guests get a synthetic
// identity per login and no database row.
type Identity struct {
	Provider    string `json:"provider"`
	ProviderUID string `json:"providerUid"`
	SecretHash  string `json:"-"`
	UserID      string `json:"userId"`
}

type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Claims struct {
	UserID      string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

type IdentityRepository interface {
	GetIdentity(provider, providerUID string) (*Identity, error)
	GetUser(id string) (*User, error)
}

type LoginResponse struct {
	Token       string `json:"token"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}
