package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the bearer token payload accepted on mutating routes.
type AccessClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
