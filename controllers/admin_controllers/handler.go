package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/services/ledger"
)

type Handler struct {
	Engine *ledger.Engine
}

func NewHandler(engine *ledger.Engine) *Handler {
	return &Handler{Engine: engine}
}

// parse decodes and validates the request body into payload. It writes the
// error response itself and reports whether the handler may continue.
func parse(c *fiber.Ctx, payload interface{}) (bool, error) {
	if err := c.BodyParser(payload); err != nil {
		return false, helpers.InvalidBody(c)
	}

	errs := new(helpers.Errors)
	helpers.Vaildate(payload, errs)
	if errs.Size() > 0 {
		return false, c.Status(422).JSON(errs)
	}

	return true, nil
}

func parseQuery(c *fiber.Ctx, payload interface{}) (bool, error) {
	if err := c.QueryParser(payload); err != nil {
		return false, helpers.InvalidQuery(c)
	}

	errs := new(helpers.Errors)
	helpers.Vaildate(payload, errs)
	if errs.Size() > 0 {
		return false, c.Status(422).JSON(errs)
	}

	return true, nil
}
