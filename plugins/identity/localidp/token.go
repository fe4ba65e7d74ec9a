package localidp

import (
	"time"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
)

// Both issuer and audience of session tokens. Tokens are created and
// consumed by the same installation, never a third party.
const tokenIssuer = "lesson-inglesh"

// Leeway for JWT expiration checks.
const jwtLeeway = 5 * time.Second

// Allows for time to be stubbed in tests.
var timeFunc = time.Now

// Claims registered as part of a session token.
type claims struct {
	// Standard public JWT claims per https://www.iana.org/assignments/jwt/jwt.xhtml
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`

	// Custom claims.
	Provider string `json:"idp"`
}

// signSessionToken creates a signed JWT for a login session.
func (p *LocalPlugin) signSessionToken(a *Account, sessionID string, expiresAt time.Time) (string, error) {
	cl := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   a.ID,
			Audience:  jwt.ClaimStrings{tokenIssuer},
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(timeFunc()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:     a.Name,
		Email:    a.Email,
		Provider: ProviderName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	ss, err := token.SignedString(p.signingKey)
	if err != nil {
		return "", errors.Wrap(err, 0).WithCode(codes.Unauthenticated)
	}
	return ss, nil
}

// parseSessionToken validates a signed JWT and returns the claims encoded
// within. Invalid and expired tokens will error.
func (p *LocalPlugin) parseSessionToken(tokenString string) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims{},
		func(token *jwt.Token) (interface{}, error) {
			return p.signingKey, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenIssuer),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithTimeFunc(timeFunc),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, errors.Wrap(err, 0).WithCode(codes.Unauthenticated)
	}

	if cl, ok := token.Claims.(*claims); ok && token.Valid {
		return cl, nil
	}
	return nil, errors.NewC("localidp: invalid session token", codes.Unauthenticated)
}
