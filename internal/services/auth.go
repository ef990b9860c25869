package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// JWTClaims carries only the subject; role and profile are resolved
// server-side so a stale token cannot smuggle an old role.
type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID) (string, error)
}

type authService struct {
	log       *logger.Logger
	identity  IdentityService
	secretKey string
	accessTTL time.Duration
}

func NewAuthService(identity IdentityService, secretKey string, accessTTL time.Duration, log *logger.Logger) AuthService {
	return &authService{
		log:       log.With("service", "AuthService"),
		identity:  identity,
		secretKey: secretKey,
		accessTTL: accessTTL,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "auth.set_context_from_token"

	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(as.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, types.Wrap(types.KindPermission, op, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, types.E(types.KindPermission, op, "invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, types.E(types.KindPermission, op, "invalid subject in token")
	}

	projection, err := as.identity.Get(
		requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: userID}), userID)
	if err != nil {
		return ctx, err
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        projection.Role,
		ProfileID:   projection.ProfileID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) IssueToken(userID uuid.UUID) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.secretKey))
}
