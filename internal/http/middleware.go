package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/security"
)

// recoverer turns a panic in a handler into a 500 {error} response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "Recovered from panic",
				applog.FieldComponent, applog.ComponentHTTP,
				"panic", rec,
				"method", r.Method,
				"url", r.URL.Path,
				"stack", string(debug.Stack()))
			writeErrorMessage(w, r, http.StatusInternalServerError, msgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// limitBody caps the request body at max bytes.
func limitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// flagSuspicious logs requests that look like probes. They are still
// served.
func flagSuspicious(d *security.Detector, clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d.DetectSuspiciousRequest(r) {
				slog.WarnContext(r.Context(), "Suspicious request",
					applog.FieldComponent, applog.ComponentSecurity,
					applog.FieldClientIP, clientIP(r),
					"method", r.Method,
					"url", r.URL.Path,
					"user_agent", r.Header.Get("User-Agent"))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireSession rejects requests without a valid bearer session token and
// stores the verified claims in the request context.
func requireSession(tokens *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeErrorMessage(w, r, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			claims, err := tokens.Verify(raw, auth.PurposeSession)
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected bearer token",
					applog.FieldComponent, applog.ComponentAuth,
					"error", err)
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
