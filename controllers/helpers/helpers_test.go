package helpers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/phuanduong/ledger/types"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, fiber.StatusUnprocessableEntity, Status(types.NewValidationError("amount", "must be positive")))
	assert.Equal(t, fiber.StatusUnprocessableEntity, Status(&types.InsufficientFundsError{}))
	assert.Equal(t, fiber.StatusNotFound, Status(fmt.Errorf("wrap: %w", types.NewNotFoundError("user", "1"))))
	assert.Equal(t, fiber.StatusConflict, Status(&types.StateError{Entity: "deposit_request", ID: "1", From: "approved"}))
	assert.Equal(t, fiber.StatusInternalServerError, Status(errors.New("db down")))
}

type samplePayload struct {
	Amount int64  `json:"amount" validate:"required|min:1"`
	Kind   string `json:"kind" validate:"required|in:income,expense"`
}

func (p samplePayload) Messages() map[string]string {
	return VaildateMessage("ledger.sample")
}

func TestVaildate(t *testing.T) {
	errs := new(Errors)
	Vaildate(&samplePayload{Amount: 10, Kind: "income"}, errs)
	assert.Equal(t, 0, errs.Size())

	errs = new(Errors)
	Vaildate(&samplePayload{Kind: "gift"}, errs)
	assert.Greater(t, errs.Size(), 0)
}
