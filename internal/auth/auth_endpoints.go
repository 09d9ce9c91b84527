package auth

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
)

type Endpoints struct {
	identityRepository IdentityRepository
	service            *Service
}

func NewEndpoints(identityRepository IdentityRepository, service *Service) *Endpoints {
	return &Endpoints{
		identityRepository: identityRepository,
		service:            service,
	}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type guestLoginRequest struct {
	DisplayName string `json:"displayName"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// AdminLogin authenticates a pre-registered admin by email and password.
func (e *Endpoints) AdminLogin(ctx *fasthttp.RequestCtx) {
	var req adminLoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.Email == "" {
		ctx.Error("missing email", fasthttp.StatusBadRequest)
		return
	}
	if req.Password == "" {
		ctx.Error("missing password", fasthttp.StatusBadRequest)
		return
	}

	identity, err := e.identityRepository.GetIdentity("password", req.Email)
	if err != nil || identity.SecretHash == "" {
		ctx.Error("authentication failed", fasthttp.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.SecretHash), []byte(req.Password)); err != nil {
		ctx.Error("authentication failed", fasthttp.StatusUnauthorized)
		return
	}

	user, err := e.identityRepository.GetUser(identity.UserID)
	if err != nil {
		log.Error().Err(err).Str("userId", identity.UserID).Msg("Identity without user row")
		ctx.Error("failed to login", fasthttp.StatusInternalServerError)
		return
	}

	token, _, err := e.service.GenerateJWT(user.ID, user.DisplayName, user.Email, user.Role)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate JWT")
		ctx.Error("failed to login", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, LoginResponse{
		Token:       token,
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       req.Email,
		Role:        user.Role,
	})
}

// GuestLogin issues a guest token for an arbitrary display name. Guests
// exist only inside the token; nothing is persisted.
func (e *Endpoints) GuestLogin(ctx *fasthttp.RequestCtx) {
	var req guestLoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		ctx.Error("missing displayName", fasthttp.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	token, _, err := e.service.GenerateJWT(id, req.DisplayName, "", RoleGuest)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate JWT")
		ctx.Error("failed to login", fasthttp.StatusInternalServerError)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, LoginResponse{
		Token:       token,
		ID:          id,
		DisplayName: req.DisplayName,
		Role:        RoleGuest,
	})
}

// Verify reports whether a token is currently valid and echoes its claims.
func (e *Endpoints) Verify(ctx *fasthttp.RequestCtx) {
	var req verifyRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error("invalid request body", fasthttp.StatusBadRequest)
		return
	}
	if req.Token == "" {
		ctx.Error("missing token", fasthttp.StatusBadRequest)
		return
	}

	claims, err := e.service.ValidateJWT(req.Token)
	if err != nil {
		ctx.Error("invalid token", fasthttp.StatusUnauthorized)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"valid":   true,
		"decoded": claims,
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, _ := json.Marshal(v)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
