package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// principalKey is the gin context key holding the authenticated principal.
const principalKey = "principal"

// SetupCORS configures CORS middleware
func SetupCORS() gin.HandlerFunc {
	config := cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000", // Viewer frontend
			"http://localhost:4200", // Admin shell app
			"http://localhost:4310", // Tour editor MFE
			"https://admin.tesseract-hub.com",
			"https://app.tesseract-hub.com",
			"https://tours.tesseract-hub.com",
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Requested-With", "X-User-ID", "X-User-Role",
		},
		ExposeHeaders: []string{
			"Content-Length", "X-Total-Count",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(config)
}

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	})
}

// Recovery recovers from panics
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(string); ok {
			c.JSON(500, gin.H{
				"success": false,
				"message": "Internal server error",
				"error":   err,
			})
		}
		c.AbortWithStatus(500)
	})
}

// claims is the accepted JWT payload shape.
type claims struct {
	UserID string   `json:"user_id"`
	Role   string   `json:"role"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Auth resolves the caller's identity and stores it in the request context.
// A valid Bearer token wins; the X-User-ID / X-User-Role headers are accepted
// as a fallback for internal service-to-service calls behind the gateway.
// Requests without credentials proceed as anonymous; the service layer
// decides which operations anonymous callers may perform.
func Auth(jwtSecret string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := services.Principal{}

		if tokenString, ok := bearerToken(c); ok {
			token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				logger.WithError(err).Warn("Invalid or expired token")
			} else if cl, ok := token.Claims.(*claims); ok && token.Valid {
				if id, err := uuid.Parse(cl.UserID); err == nil {
					principal.ID = id
					principal.Role = resolveRole(cl)
				}
			}
		}

		if principal.IsAnonymous() {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				if id, err := uuid.Parse(userID); err == nil {
					principal.ID = id
					principal.Role = c.GetHeader("X-User-Role")
				}
			}
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):], true
	}
	return "", false
}

func resolveRole(cl *claims) string {
	if cl.Role != "" {
		return cl.Role
	}
	for _, r := range cl.Roles {
		if r == services.RoleAdmin {
			return services.RoleAdmin
		}
	}
	return ""
}

// PrincipalFrom returns the principal stored by Auth, or the anonymous
// principal when the middleware did not run.
func PrincipalFrom(c *gin.Context) services.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(services.Principal); ok {
			return p
		}
	}
	return services.Principal{}
}
