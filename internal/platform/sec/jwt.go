// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides token verification and role semantics.
//
// Inkwell does not issue sessions itself: an identity provider signs RS256 access
// tokens and this package verifies them so the middleware can expose the caller
// as an explicit principal.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID   string `json:"uid"`
	Username string `json:"unm"`
	Role     string `json:"rol"`
}

// TokenService verifies RS256 JWT tokens issued by the identity provider.
type TokenService struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenService reads the identity provider's RSA public key from a PEM file.
func NewTokenService(publicKeyPath, issuer string) (*TokenService, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to parse public key: %w", err)
	}

	return NewTokenServiceFromKey(publicKey, issuer), nil
}

// NewTokenServiceFromKey builds a TokenService from an already parsed key.
func NewTokenServiceFromKey(publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{publicKey: publicKey, issuer: issuer}
}

// VerifyToken checks the signature, issuer, and expiry of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	}, jwt.WithIssuer(service.issuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("auth: invalid token claims")
	}

	return claims, nil
}
