package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
	"github.com/72mo2c/pero-system-sub002/internal/serve/httperror"
)

// OperatorTokenHeader carries an optional HS256 token naming the operator behind the admin account.
const OperatorTokenHeader = "X-Operator-Token"

var ErrInvalidOperatorToken = errors.New("invalid operator token")

const minOperatorTokenSecretSize = 12

type OperatorTokenManager struct {
	secret []byte
}

func NewOperatorTokenManager(secret string) (*OperatorTokenManager, error) {
	if len(secret) < minOperatorTokenSecretSize {
		return nil, fmt.Errorf("operator token secret is required to have at least %d characters", minOperatorTokenSecretSize)
	}
	return &OperatorTokenManager{secret: []byte(secret)}, nil
}

// GenerateToken signs a token for operatorID. It is used by the CLI to hand out tokens.
func (m *OperatorTokenManager) GenerateToken(operatorID string, expiresIn time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   operatorID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	if err := claims.Valid(); err != nil {
		return "", fmt.Errorf("validating operator token claims: %w", err)
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing operator token: %w", err)
	}
	return signedToken, nil
}

// ParseOperatorID returns the operator the token was issued to.
func (m *OperatorTokenManager) ParseOperatorID(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing operator token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidOperatorToken
	}
	return claims.Subject, nil
}

// OperatorIdentityMiddleware replaces the operator of the request with the subject of the operator token, when one is
// sent. A nil manager disables operator tokens.
func OperatorIdentityMiddleware(tokenManager *OperatorTokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			rawToken := bearerToken(req.Header.Get(OperatorTokenHeader))
			if tokenManager == nil || rawToken == "" {
				next.ServeHTTP(rw, req)
				return
			}

			ctx := req.Context()
			operatorID, err := tokenManager.ParseOperatorID(rawToken)
			if err != nil {
				log.Ctx(ctx).Warnf("rejecting operator token: %v", err)
				httperror.Unauthorized("Invalid operator token.", nil, nil).Render(rw)
				return
			}

			ctx = requestctx.SetOperatorIDInContext(ctx, operatorID)
			ctx = requestctx.SetTokenInContext(ctx, rawToken)
			ctx = log.Set(ctx, log.Ctx(ctx).WithField("operator_id", operatorID))
			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
}
