// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/inkwell/internal/platform/sec"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// issue signs a token the way the identity provider does.
func issue(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, issuer, userID, role string, timeToLive time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
		},
		UserID:   userID,
		Username: "mira",
		Role:     role,
	}

	var signingKey any = key
	if method == jwt.SigningMethodHS256 {
		signingKey = []byte("shared-secret")
	}

	token, err := jwt.NewWithClaims(method, claims).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

func TestTokenService_Verify(t *testing.T) {
	key := newKey(t)
	service := sec.NewTokenServiceFromKey(&key.PublicKey, "inkwell.app")

	claims, err := service.VerifyToken(issue(t, key, jwt.SigningMethodRS256, "inkwell.app", "user-123", string(sec.RoleAuthor), time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "author", claims.Role)
}

func TestTokenService_Rejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	service := sec.NewTokenServiceFromKey(&key.PublicKey, "inkwell.app")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", issue(t, key, jwt.SigningMethodRS256, "inkwell.app", "user-123", "reader", -time.Minute)},
		{"wrong_key", issue(t, other, jwt.SigningMethodRS256, "inkwell.app", "user-123", "reader", time.Hour)},
		{"wrong_issuer", issue(t, key, jwt.SigningMethodRS256, "elsewhere", "user-123", "reader", time.Hour)},
		{"hmac_signed", issue(t, key, jwt.SigningMethodHS256, "inkwell.app", "user-123", "reader", time.Hour)},
		{"missing_user", issue(t, key, jwt.SigningMethodRS256, "inkwell.app", "", "reader", time.Hour)},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestUserRole_AtLeast(t *testing.T) {
	tests := []struct {
		role   sec.UserRole
		target sec.UserRole
		want   bool
	}{
		{sec.RoleAdmin, sec.RoleModerator, true},
		{sec.RoleModerator, sec.RoleModerator, true},
		{sec.RoleAuthor, sec.RoleModerator, false},
		{sec.RoleReader, sec.RoleAuthor, false},
		{sec.UserRole("ghost"), sec.RoleReader, false},
		{sec.UserRole(""), sec.UserRole("ghost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.target))
		})
	}

	assert.True(t, sec.RoleModerator.Known())
	assert.False(t, sec.UserRole("editor").Known())
}
