package models

import "github.com/golang-jwt/jwt/v5"

// StaffRole represents the roles carried by staff access tokens.
type StaffRole string

const (
	RoleAdmin        StaffRole = "ADMIN"
	RolePractitioner StaffRole = "PRACTITIONER"
	RoleReception    StaffRole = "RECEPTION"
)

// JWTClaims represents the JWT payload for staff access tokens. Tokens are
// issued by the identity service; this API only validates them.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	Role     StaffRole `json:"role"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}
