package auth

import (
	"context"
	"fmt"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/utils"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the caller behind a verified bearer token.
type Identity struct {
	Subject string
	Role    string
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

// HMACVerifier accepts tokens minted by the calculator unlock.
type HMACVerifier struct {
	Issuer *Issuer
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	claims, err := v.Issuer.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

// OIDCVerifier accepts ID tokens from an external provider. Every verified
// caller is treated as team staff.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Identity{Subject: claims.Sub, Role: RoleTeam}, nil
}

// ChainVerifier tries each verifier in turn.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	err := ErrInvalidToken
	for _, v := range c {
		id, verr := v.Verify(ctx, raw)
		if verr == nil {
			return id, nil
		}
		err = verr
	}
	return nil, err
}

// Optional attaches the caller identity when a valid bearer token is present.
// Requests without one pass through anonymously.
func Optional(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireTeam rejects callers that Optional did not identify as team staff.
func RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsTeam(r.Context()) {
			utils.WriteErr(w, utils.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

func IsTeam(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.Role == RoleTeam
}
