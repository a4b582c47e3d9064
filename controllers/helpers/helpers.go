package helpers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gookit/validate"

	"github.com/phuanduong/ledger/types"
)

type Errors struct {
	Errors []string `json:"errors"`
}

func (e Errors) Size() int {
	return len(e.Errors)
}

func Vaildate(payload interface{}, err_src *Errors) {
	v := validate.Struct(payload)
	if !v.Validate() {
		for _, errs := range v.Errors.All() {
			for _, err := range errs {
				err_src.Errors = append(err_src.Errors, err)
			}
		}
	}
}

// VaildateMessage builds the error codes of a payload under prefix,
// e.g. ledger.deposit.missing_amount.
func VaildateMessage(prefix string) map[string]string {
	return validate.MS{
		"required": prefix + ".missing_{field}",
		"min":      prefix + ".non_positive_{field}",
		"in":       prefix + ".invalid_{field}",
		"isInt":    prefix + ".invalid_{field}",
	}
}

func VaildateTranslateFields() map[string]string {
	return validate.MS{}
}

// Status maps an engine error to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, types.ErrInvalidState):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func Fail(c *fiber.Ctx, err error) error {
	status := Status(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "server.internal_error"
	}

	return c.Status(status).JSON(Errors{Errors: []string{message}})
}

func InvalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(Errors{
		Errors: []string{"server.method.invalid_message_body"},
	})
}

func InvalidQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(Errors{
		Errors: []string{"server.method.invalid_query"},
	})
}

// ActorID returns the caller identity set by the actor middleware.
func ActorID(c *fiber.Ctx) string {
	actor, _ := c.Locals("ActorID").(string)
	return actor
}

func ActorRole(c *fiber.Ctx) string {
	role, _ := c.Locals("ActorRole").(string)
	return role
}

func QueryInt64(c *fiber.Ctx, key string) (int64, bool) {
	value, err := strconv.ParseInt(c.Query(key), 10, 64)
	return value, err == nil
}
