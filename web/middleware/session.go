package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const SessionCookieName = "fitmate_session"
const CookieMaxAge = 30 * 24 * 60 * 60 // 30 days

// SessionKey is the gin context key holding the session uuid.UUID.
const SessionKey = "sessionID"

// SessionMiddleware assigns every browser an anonymous session ID kept in a
// cookie. Missing or malformed cookies get a fresh session.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID uuid.UUID

		cookie, err := c.Cookie(SessionCookieName)
		if err == nil {
			sessionID, err = uuid.Parse(cookie)
		}
		if err != nil {
			sessionID = uuid.New()
			c.SetCookie(SessionCookieName, sessionID.String(), CookieMaxAge, "/", "", false, true)
		}

		c.Set(SessionKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session set by SessionMiddleware.
func SessionID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
