package middleware

// identity.go defines helper functions shared across middleware and
// handlers for extracting the authenticated actor from the Echo context.
// The actor is the administrator performing an assignment or relocation;
// its numeric ID is recorded on every relocation log entry.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// ActorID extracts the numeric actor identifier stored by JWTAuth.  It
// returns 0 when no actor is authenticated or the claim is not numeric.
func ActorID(c echo.Context) uint64 {
	switch v := c.Get("actor_id").(type) {
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	case float64:
		// JSON numbers in JWT claims decode as float64
		if v > 0 {
			return uint64(v)
		}
	}
	return 0
}

// currentActorID returns a string form of the actor for rate-limit and
// cache keys, or "anon" for unauthenticated requests.
func currentActorID(c echo.Context) string {
	if v := c.Get("actor_id"); v != nil {
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatUint(uint64(s), 10)
		}
	}
	return "anon"
}
