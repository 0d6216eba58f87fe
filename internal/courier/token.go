package courier

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"velora_back_end/internal/config"
	"velora_back_end/internal/errs"
)

// TokenSafetyMargin : on considère le token expiré 5 minutes avant sa vraie
// expiration pour ne jamais partir avec un token mourant
const TokenSafetyMargin = 5 * time.Minute

// ExchangeFunc échange les credentials contre un token bearer du transporteur
type ExchangeFunc func(ctx context.Context) (token string, expiry time.Time, err error)

// AuditFunc persiste une trace de l'échange de token (best-effort)
type AuditFunc func(obtainedAt, expiresAt time.Time, tokenHint string)

// TokenGuard possède le token bearer partagé du transporteur.
// Tous les appels concurrents passent par lui : un seul échange de token en
// vol à la fois, les appelants concurrents attendent le même résultat.
type TokenGuard struct {
	mu     sync.Mutex
	token  string
	expiry time.Time

	group    singleflight.Group
	exchange ExchangeFunc
	audit    AuditFunc
	margin   time.Duration
}

// NewTokenGuard construit un garde avec une fonction d'échange explicite.
// audit peut être nil.
func NewTokenGuard(exchange ExchangeFunc, audit AuditFunc) *TokenGuard {
	return &TokenGuard{
		exchange: exchange,
		audit:    audit,
		margin:   TokenSafetyMargin,
	}
}

// NewTokenGuardFromConfig construit un garde branché sur l'endpoint
// client-credentials du transporteur
func NewTokenGuardFromConfig(cfg config.CourierConfig, audit AuditFunc) *TokenGuard {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	exchange := func(ctx context.Context) (string, time.Time, error) {
		tok, err := cc.Token(ctx)
		if err != nil {
			var rerr *oauth2.RetrieveError
			if errors.As(err, &rerr) && rerr.Response != nil {
				return "", time.Time{}, errs.NewPartner("courier", "token", rerr.Response.StatusCode,
					"échange de token refusé", string(rerr.Body))
			}
			return "", time.Time{}, errs.NewNetwork("courier", "token", err)
		}
		return tok.AccessToken, tok.Expiry, nil
	}
	return NewTokenGuard(exchange, audit)
}

// GetValidToken retourne un token utilisable, sans appel réseau si le cache
// est encore valide. Si un refresh est déjà en vol, l'appelant attend ce
// refresh au lieu d'en déclencher un deuxième.
func (g *TokenGuard) GetValidToken(ctx context.Context) (string, error) {
	if tok, ok := g.cached(); ok {
		return tok, nil
	}
	return g.refresh(ctx)
}

// ForceRefresh invalide le cache et force exactement un nouvel échange.
// Utilisé par le wrapper 401 : jamais en boucle.
func (g *TokenGuard) ForceRefresh(ctx context.Context) (string, error) {
	g.Invalidate()
	return g.refresh(ctx)
}

// Invalidate vide le cache de token
func (g *TokenGuard) Invalidate() {
	g.mu.Lock()
	g.token = ""
	g.expiry = time.Time{}
	g.mu.Unlock()
}

func (g *TokenGuard) cached() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" && time.Now().Before(g.expiry.Add(-g.margin)) {
		return g.token, true
	}
	return "", false
}

func (g *TokenGuard) refresh(ctx context.Context) (string, error) {
	v, err, _ := g.group.Do("refresh", func() (interface{}, error) {
		// Un autre appelant a pu finir le refresh pendant qu'on attendait le vol
		if tok, ok := g.cached(); ok {
			return tok, nil
		}

		token, expiry, err := g.exchange(ctx)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		g.token = token
		g.expiry = expiry
		g.mu.Unlock()

		if g.audit != nil {
			hint := token
			if len(hint) > 8 {
				hint = hint[:8]
			}
			g.audit(time.Now(), expiry, hint)
		}

		log.Printf("🔑 Token transporteur rafraîchi (expire %s)", expiry.Format(time.RFC3339))
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
