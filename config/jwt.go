package config

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"

	"github.com/dgrijalva/jwt-go"
)

// JWTPublicKey decodes the base64 PEM in JWT_PUBLIC_KEY.
func JWTPublicKey() (*rsa.PublicKey, error) {
	encoded := GetEnv("JWT_PUBLIC_KEY", "")
	if encoded == "" {
		return nil, errors.New("JWT_PUBLIC_KEY is not set")
	}

	pem, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(pem)
}
