package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

// mockIdentityRepository for testing
type mockIdentityRepository struct {
	identities map[string]*Identity
	users      map[string]*User
}

func newMockIdentityRepository() *mockIdentityRepository {
	return &mockIdentityRepository{
		identities: make(map[string]*Identity),
		users:      make(map[string]*User),
	}
}

func (m *mockIdentityRepository) GetIdentity(provider, providerUID string) (*Identity, error) {
	identity, exists := m.identities[provider+"/"+providerUID]
	if !exists {
		return nil, fmt.Errorf("identity not found")
	}
	return identity, nil
}

func (m *mockIdentityRepository) GetUser(id string) (*User, error) {
	user, exists := m.users[id]
	if !exists {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func newTestService() *Service {
	return NewService(newMockIdentityRepository(), Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		APIToken:           "machine-token",
	})
}

func TestGenerateJWT_ShouldRoundTripClaims(t *testing.T) {
	// given
	service := newTestService()

	// when
	token, expiresAt, err := service.GenerateJWT("user-1", "Alice", "alice@example.com", RoleAdmin)

	// then
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, int64(0))

	claims, err := service.ValidateJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Alice", claims.DisplayName)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestGenerateJWT_ShouldFailWithoutSecret(t *testing.T) {
	// given
	service := NewService(newMockIdentityRepository(), Config{})

	// when
	_, _, err := service.GenerateJWT("user-1", "Alice", "", RoleViewer)

	// then
	assert.Error(t, err)
}

func TestValidateJWT_ShouldRejectForeignSignature(t *testing.T) {
	// given
	service := newTestService()
	other := NewService(newMockIdentityRepository(), Config{JWTSecret: "other-secret", JWTExpirationHours: 1})
	token, _, err := other.GenerateJWT("user-1", "Alice", "", RoleViewer)
	assert.NoError(t, err)

	// when
	_, err = service.ValidateJWT(token)

	// then
	assert.Error(t, err)
}

func TestValidateRequest_ShouldAcceptAPIToken(t *testing.T) {
	// given
	service := newTestService()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Api-Token", "machine-token")

	// when
	claims, err := service.ValidateRequest(&ctx)

	// then
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestValidateRequest_ShouldRejectWrongAPIToken(t *testing.T) {
	// given
	service := newTestService()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Api-Token", "wrong")

	// when
	_, err := service.ValidateRequest(&ctx)

	// then
	assert.Error(t, err)
}

func TestValidateRequest_ShouldAcceptBearerToken(t *testing.T) {
	// given
	service := newTestService()
	token, _, err := service.GenerateJWT("user-2", "Bob", "", RoleViewer)
	assert.NoError(t, err)
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer "+token)

	// when
	claims, err := service.ValidateRequest(&ctx)

	// then
	assert.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
	assert.Equal(t, RoleViewer, claims.Role)
}

func TestValidateRequest_ShouldRejectMissingHeader(t *testing.T) {
	// given
	service := newTestService()
	var ctx fasthttp.RequestCtx

	// when
	_, err := service.ValidateRequest(&ctx)

	// then
	assert.Error(t, err)
}

func TestExtractJWTFromAuthorizationHeader_ShouldRejectNonBearer(t *testing.T) {
	// when
	_, err := extractJWTFromAuthorizationHeader("Basic dXNlcjpwYXNz")

	// then
	assert.Error(t, err)
}
