package middlewares

import (
	"crypto/rsa"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
)

var (
	AuthzInvalidSession = "authz.invalid_session"
	JwtDecodeAndVerify  = "jwt.decode_and_verify"
)

// Auth holds the claims of a session token.
type Auth struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`

	jwt.StandardClaims
}

// Authenticate verifies the RS256 bearer token and exposes its subject as
// ActorID and ActorRole.
func Authenticate(publicKey *rsa.PublicKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if len(token) == 0 {
			return c.Status(401).JSON(helpers.Errors{
				Errors: []string{AuthzInvalidSession},
			})
		}

		token = strings.TrimPrefix(token, "Bearer ")

		var auth Auth
		_, err := jwt.ParseWithClaims(token, &auth, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return publicKey, nil
		})
		if err != nil || auth.UID == "" {
			return c.Status(422).JSON(helpers.Errors{
				Errors: []string{JwtDecodeAndVerify},
			})
		}

		c.Locals("ActorID", auth.UID)
		c.Locals("ActorRole", auth.Role)

		return c.Next()
	}
}
