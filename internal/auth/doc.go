// Package auth provides the browser-facing authentication plumbing:
// bcrypt password hashing, cookie sessions backed by SQLite, CSRF
// protection, security headers, login rate limiting, and the Gin
// middleware that resolves the request's user.
//
// The actual sign-in/sign-up logic lives in the persistence gateway
// (internal/gateway); this package only keeps the browser attached to
// an authenticated principal between requests.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
package auth
