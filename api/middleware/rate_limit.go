package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/api/responses"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	pkgredis "github.com/luxemarket/storefront-backend/pkg/redis"
)

// RateCounter is satisfied by *redis.Client.
type RateCounter interface {
	CountInWindow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.Window, error)
}

// RateLimitRule throttles one route. Each non-zero limit is its own counter
// over the shared window; the first exhausted counter rejects the request.
type RateLimitRule struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
	PerUser  int
}

func (r RateLimitRule) active() bool {
	return r.Window > 0 && (r.PerIP > 0 || r.PerEmail > 0 || r.PerUser > 0)
}

type rateCheck struct {
	dimension string
	subject   string
	limit     int
}

// RateLimit answers 429 RATE_LIMIT_EXCEEDED with Retry-After once a caller
// uses up a window. Email subjects are hashed before they reach Redis.
func RateLimit(rule RateLimitRule, counter RateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.ToLower(strings.TrimSpace(rule.Name))
	if name == "" {
		name = "default"
	}
	return func(next http.Handler) http.Handler {
		if counter == nil || !rule.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := rateChecks(rule, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}

			for _, check := range checks {
				scope := strings.Join([]string{name, check.dimension, check.subject}, ":")
				window, err := counter.CountInWindow(ctx, scope, int64(check.limit), rule.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !window.Allowed() {
					rejectRateLimited(ctx, logg, w, name, check, window)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateChecks(rule RateLimitRule, r *http.Request) ([]rateCheck, error) {
	var checks []rateCheck
	if rule.PerIP > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, rateCheck{dimension: "ip", subject: ip, limit: rule.PerIP})
		}
	}
	if rule.PerUser > 0 {
		if id := UserIDFromContext(r.Context()); id != uuid.Nil {
			checks = append(checks, rateCheck{dimension: "user", subject: id.String(), limit: rule.PerUser})
		}
	}
	if rule.PerEmail > 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		if email := emailFromBody(body); email != "" {
			checks = append(checks, rateCheck{dimension: "email", subject: sha256Hex(email), limit: rule.PerEmail})
		}
	}
	return checks, nil
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, name string, check rateCheck, window pkgredis.Window) {
	retryAfter := int(math.Ceil(window.ResetIn.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"rule":        name,
			"dimension":   check.dimension,
			"subject":     check.subject,
			"attempts":    window.Count,
			"limit":       window.Limit,
			"retry_after": retryAfter,
		}), "rate limit exceeded")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again later").
		WithDetails(map[string]any{"retryAfterSeconds": retryAfter}))
}

// clientIP trusts the first X-Forwarded-For hop; the API only runs behind
// the load balancer that sets it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func sha256Hex(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
