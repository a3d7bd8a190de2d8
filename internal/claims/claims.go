package claims

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the slice of a bearer token the session registry cares
// about. The jti is mandatory; everything else has a fallback.
type Claims struct {
	TokenJTI  string
	Subject   string
	UserID    string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Parse extracts registry claims from a JWT. With a non-empty secret
// the signature is verified as HMAC; with an empty secret the token is
// decoded without verification, for deployments where an identity
// provider in front of the service has already validated it.
func Parse(tokenString, secret string) (Claims, error) {
	var token *jwt.Token
	var err error

	mapClaims := jwt.MapClaims{}
	if secret != "" {
		token, err = jwt.ParseWithClaims(tokenString, mapClaims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return Claims{}, ErrInvalidToken
		}
	} else {
		parser := jwt.NewParser()
		token, _, err = parser.ParseUnverified(tokenString, mapClaims)
		if err != nil {
			return Claims{}, ErrInvalidToken
		}
	}

	jti, _ := mapClaims["jti"].(string)
	if jti == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed := Claims{TokenJTI: jti}
	parsed.Subject, _ = mapClaims["sub"].(string)
	if userID, ok := mapClaims["user_id"].(string); ok {
		parsed.UserID = userID
	} else {
		parsed.UserID = parsed.Subject
	}
	parsed.Roles = extractRoles(mapClaims)

	now := time.Now()
	if issued, err := mapClaims.GetIssuedAt(); err == nil && issued != nil {
		parsed.IssuedAt = issued.Time
	} else {
		parsed.IssuedAt = now
	}
	if expires, err := mapClaims.GetExpirationTime(); err == nil && expires != nil {
		parsed.ExpiresAt = expires.Time
	} else {
		parsed.ExpiresAt = now.Add(24 * time.Hour)
	}
	return parsed, nil
}

// extractRoles reads a flat "roles" claim or the Keycloak
// realm_access.roles shape.
func extractRoles(mapClaims jwt.MapClaims) []string {
	if roles := stringSlice(mapClaims["roles"]); len(roles) > 0 {
		return roles
	}
	realmAccess, ok := mapClaims["realm_access"].(map[string]interface{})
	if !ok {
		return nil
	}
	return stringSlice(realmAccess["roles"])
}

func stringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	var result []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
