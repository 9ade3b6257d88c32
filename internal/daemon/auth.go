package daemon

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	ownerCookie   = "factcheck_owner"
	tokenHeader   = "X-CSRF-Token"
	ownerMaxAge   = 365 * 24 * 60 * 60
	limiterIdle   = 10 * time.Minute
	limiterPrune  = 1024
	secretEntropy = 32
)

type ownerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// guard issues owner identities, verifies anti-forgery tokens, and throttles
// submissions per owner.
type guard struct {
	secret []byte
	limit  rate.Limit
	burst  int
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*ownerLimiter
}

// newGuard builds a guard. An empty secret is replaced with a random one, so
// tokens do not survive a restart.
func newGuard(secret string, perSecond float64, burst int) *guard {
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = make([]byte, secretEntropy)
		_, _ = rand.Read(key)
	}
	if burst < 1 {
		burst = 1
	}
	return &guard{
		secret:   key,
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*ownerLimiter),
	}
}

// owner returns the caller's owner key, issuing a cookie on first contact.
func (g *guard) owner(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(ownerCookie); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ownerCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   ownerMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return id
}

// existingOwner returns the owner key only when a valid cookie is present.
func (g *guard) existingOwner(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(ownerCookie)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (g *guard) token(owner string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(owner))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *guard) validToken(owner, token string) bool {
	token = strings.TrimSpace(token)
	if owner == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(g.token(owner)), []byte(token))
}

// allow reports whether owner may submit now.
func (g *guard) allow(owner string) bool {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.limiters[owner]
	if !ok {
		if len(g.limiters) >= limiterPrune {
			g.pruneLocked(now)
		}
		entry = &ownerLimiter{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.limiters[owner] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (g *guard) pruneLocked(now time.Time) {
	for key, entry := range g.limiters {
		if now.Sub(entry.lastSeen) > limiterIdle {
			delete(g.limiters, key)
		}
	}
}

// requireToken rejects requests without a valid owner cookie and matching
// X-CSRF-Token header.
func (s *apiServer) requireToken(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.guard.existingOwner(r)
		if !ok || !s.guard.validToken(owner, r.Header.Get(tokenHeader)) {
			s.writeError(w, http.StatusForbidden, "invalid or missing anti-forgery token")
			return
		}
		next(w, r, owner)
	}
}
