package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"custody/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const callerKey = "custody.caller"

// Claims are issued by the identity provider. Subject carries the party id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HMAC signed bearer tokens and turns their claims into a
// kernel.Caller. Claims are trusted once the signature checks out.
type TokenVerifier struct {
	signingKey []byte
	issuer     string
}

func NewTokenVerifier(signingKey, issuer string) *TokenVerifier {
	return &TokenVerifier{signingKey: []byte(signingKey), issuer: issuer}
}

func (v *TokenVerifier) Verify(token string) (kernel.Caller, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.signingKey, nil
	}, options...)
	if err != nil {
		return kernel.Caller{}, err
	}
	if !parsed.Valid {
		return kernel.Caller{}, errors.New("invalid token")
	}

	id, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return kernel.Caller{}, err
	}
	role, err := kernel.ParseRole(claims.Role)
	if err != nil {
		return kernel.Caller{}, err
	}
	return kernel.NewCaller(id, role)
}

// Issue signs a token for caller. Used by tests and local tooling.
func (v *TokenVerifier) Issue(caller kernel.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: caller.Role().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID().String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.signingKey)
}

// RequireCaller rejects requests without a valid bearer token.
func RequireCaller(verifier *TokenVerifier, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "uri", c.Request().RequestURI)
				return c.JSON(http.StatusUnauthorized, failure("Missing or invalid Authorization header", nil))
			}

			caller, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err)
				return c.JSON(http.StatusUnauthorized, failure("Invalid or expired token", nil))
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

func callerFrom(c echo.Context) kernel.Caller {
	caller, _ := c.Get(callerKey).(kernel.Caller)
	return caller
}
