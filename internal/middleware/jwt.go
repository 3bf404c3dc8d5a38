package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-grader/internal/utils"
)

// JWTProtected validates HMAC-signed bearer tokens and stores the token
// subject in the "subject" local.
func JWTProtected(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(
			strings.TrimSpace(authorization[len(bearer):]),
			&claims,
			func(*jwt.Token) (interface{}, error) { return key, nil },
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		)
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		if claims.Subject != "" {
			c.Locals("subject", claims.Subject)
		}

		return c.Next()
	}
}

// SubjectFromContext returns the authenticated token subject, if any.
func SubjectFromContext(c *fiber.Ctx) string {
	subject, _ := c.Locals("subject").(string)
	return subject
}
