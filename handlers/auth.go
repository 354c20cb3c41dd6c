package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mini-planner/apperr"
	"mini-planner/auth"
	"mini-planner/models"
	"mini-planner/services"
)

const refreshHeader = "X-Refresh-Token"

type authHandler struct {
	users    *services.UserService
	tokens   *auth.Tokens
	sessions auth.Sessions
	log      *zap.Logger
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// issue signs a token pair and registers the refresh token's jti.
func (h *authHandler) issue(ctx context.Context, userID string) (tokenPair, error) {
	access, err := h.tokens.IssueAccess(userID)
	if err != nil {
		return tokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, jti, err := h.tokens.IssueRefresh(userID)
	if err != nil {
		return tokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := h.sessions.Store(ctx, jti, userID, h.tokens.RefreshTTL()); err != nil {
		return tokenPair{}, fmt.Errorf("store session: %w", err)
	}
	return tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (h *authHandler) respondTokens(w http.ResponseWriter, message string, pair tokenPair) {
	w.Header().Set("Authorization", "Bearer "+pair.AccessToken)
	w.Header().Set(refreshHeader, "Bearer "+pair.RefreshToken)
	writeJSON(w, http.StatusOK, message, envelope{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *authHandler) signup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	hash, err := auth.HashPassword(*in.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	id, err := h.users.Add(r.Context(), &models.User{
		UserName:     *in.UserName,
		Email:        *in.Email,
		PasswordHash: hash,
		FirstName:    *in.FirstName,
		LastName:     *in.LastName,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, "User Signed Up Successfully", envelope{"id": id})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var (
		user *models.User
		err  error
	)
	if in.byEmail() {
		user, err = h.users.FindByEmail(r.Context(), *in.EmailOrUserName)
	} else {
		user, err = h.users.FindByUserName(r.Context(), *in.EmailOrUserName)
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, *in.Password) {
		writeError(w, r, h.log, apperr.New(apperr.InvalidCredentials))
		return
	}

	pair, err := h.issue(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.respondTokens(w, "User Authenticated Successfully", pair)
}

// refreshClaims reads the refresh token from the X-Refresh-Token header or
// the body and verifies its signature. Liveness is settled by Revoke.
func (h *authHandler) refreshClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, error) {
	token := strings.TrimPrefix(r.Header.Get(refreshHeader), "Bearer ")
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decode(w, r, &body); err != nil {
			return nil, err
		}
		token = body.RefreshToken
	}
	if token == "" {
		return nil, apperr.New(apperr.Unauthenticated)
	}

	claims, err := h.tokens.ParseRefresh(token)
	if err != nil {
		h.log.Debug("refresh token rejected", zap.Error(err))
		return nil, apperr.New(apperr.Unauthenticated)
	}
	return claims, nil
}

// redeem revokes the session behind claims. A session that was already
// gone, expired or lost to a concurrent request, is Unauthenticated.
func (h *authHandler) redeem(r *http.Request, claims *auth.Claims) error {
	live, err := h.sessions.Revoke(r.Context(), claims.ID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if !live {
		return apperr.New(apperr.Unauthenticated)
	}
	return nil
}

// refresh rotates the pair: the presented refresh token is revoked.
func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) {
	claims, err := h.refreshClaims(w, r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.redeem(r, claims); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	pair, err := h.issue(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.respondTokens(w, "Access Token Renewed Successfully", pair)
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	claims, err := h.refreshClaims(w, r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if claims.UserID != owner {
		writeError(w, r, h.log, apperr.New(apperr.AccessDenied))
		return
	}
	if err := h.redeem(r, claims); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, "User Logged Out Successfully", nil)
}
