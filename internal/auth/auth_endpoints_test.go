package auth

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

func seedPasswordIdentity(t *testing.T, repo *mockIdentityRepository, email, password, role string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	repo.identities["password/"+email] = &Identity{
		Provider:    "password",
		ProviderUID: email,
		SecretHash:  string(hash),
		UserID:      "user-1",
	}
	repo.users["user-1"] = &User{ID: "user-1", DisplayName: "Alice", Email: email, Role: role}
}

func loginRequest(t *testing.T, v interface{}) *fasthttp.RequestCtx {
	body, err := json.Marshal(v)
	assert.NoError(t, err)
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.SetBody(body)
	return &ctx
}

func TestAdminLogin_ShouldIssueTokenWithStoredRole(t *testing.T) {
	// given
	repo := newMockIdentityRepository()
	seedPasswordIdentity(t, repo, "alice@example.com", "s3cret", RoleViewer)
	service := NewService(repo, Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	endpoints := NewEndpoints(repo, service)
	ctx := loginRequest(t, adminLoginRequest{Email: "alice@example.com", Password: "s3cret"})

	// when
	endpoints.AdminLogin(ctx)

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp LoginResponse
	assert.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, RoleViewer, resp.Role)

	claims, err := service.ValidateJWT(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, RoleViewer, claims.Role)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestAdminLogin_ShouldRejectWrongPassword(t *testing.T) {
	// given
	repo := newMockIdentityRepository()
	seedPasswordIdentity(t, repo, "alice@example.com", "s3cret", RoleAdmin)
	service := NewService(repo, Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	endpoints := NewEndpoints(repo, service)
	ctx := loginRequest(t, adminLoginRequest{Email: "alice@example.com", Password: "wrong"})

	// when
	endpoints.AdminLogin(ctx)

	// then
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAdminLogin_ShouldRejectUnknownEmail(t *testing.T) {
	// given
	repo := newMockIdentityRepository()
	service := NewService(repo, Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	endpoints := NewEndpoints(repo, service)
	ctx := loginRequest(t, adminLoginRequest{Email: "nobody@example.com", Password: "s3cret"})

	// when
	endpoints.AdminLogin(ctx)

	// then
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestGuestLogin_ShouldIssueGuestToken(t *testing.T) {
	// given
	service := NewService(newMockIdentityRepository(), Config{JWTSecret: "test-secret", JWTExpirationHours: 1})
	endpoints := NewEndpoints(newMockIdentityRepository(), service)
	ctx := loginRequest(t, guestLoginRequest{DisplayName: "Visitor"})

	// when
	endpoints.GuestLogin(ctx)

	// then
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp LoginResponse
	assert.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, RoleGuest, resp.Role)
	claims, err := service.ValidateJWT(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, RoleGuest, claims.Role)
}
