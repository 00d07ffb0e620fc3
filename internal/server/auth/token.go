// Package auth is the principal-supplier boundary: it parses the opaque
// bearer token issued by the external credential service into a Principal.
// Token issuance lives outside this core.
package auth

import (
	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the principal's role and display
// name.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

// PrincipalFromToken verifies an HS256 token and extracts the principal.
// Returns common.ErrInvalidToken for anything that does not verify.
func PrincipalFromToken(tokenString string, secretKey []byte) (models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return models.Principal{}, common.ErrInvalidToken
	}

	role := models.Role(claims.Role)
	switch role {
	case models.RoleAdmin, models.RoleStaff, models.RoleClient:
	default:
		return models.Principal{}, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return models.Principal{}, common.ErrInvalidToken
	}

	return models.Principal{ID: claims.Subject, Role: role, Name: claims.Name}, nil
}
