package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type AuthConfig struct {
	// Secret is the HS256 key shared with the identity provider.
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// AuthService verifies identity tokens issued by the external provider and
// resolves them to a profile row. It never writes.
type AuthService interface {
	// SetContextFromToken returns ctx carrying the caller's RequestData.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, *types.User, error)
}

type authService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	cfg      AuthConfig
	parser   *jwt.Parser
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, cfg AuthConfig) AuthService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &authService{
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
		cfg:      cfg,
		parser:   jwt.NewParser(opts...),
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, *types.User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, nil, apierr.Unauthorized("missing token")
	}
	if as.cfg.Secret == "" {
		as.log.Error("AUTH_JWT_SECRET not configured; rejecting request")
		return ctx, nil, apierr.Unauthorized("invalid token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := as.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(as.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, nil, apierr.Unauthorized("token expired")
		}
		as.log.Debug("Token rejected", "error", err.Error())
		return ctx, nil, apierr.Unauthorized("invalid token")
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return ctx, nil, apierr.Unauthorized("token has no subject")
	}

	u, err := as.userRepo.GetByAuthID(dbctx.Of(ctx), sub)
	if err != nil {
		return ctx, nil, apierr.Internal("failed to load profile", err)
	}
	if u == nil {
		return ctx, nil, apierr.NotFound("profile not found")
	}

	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		AuthID: sub,
		UserID: u.ID,
	})
	return ctx, u, nil
}
