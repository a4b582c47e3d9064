package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
)

func AdminVaildator(c *fiber.Ctx) error {
	role, _ := c.Locals("ActorRole").(string)

	if role != "admin" && role != "superadmin" {
		return c.Status(422).JSON(helpers.Errors{
			Errors: []string{"authz.invalid_permission"},
		})
	}

	return c.Next()
}
