package admin_controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/deposits"
	"github.com/phuanduong/ledger/types"
)

func (h *Handler) GetDeposits(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if userID := c.Query("user_id"); userID != "" {
		list, err := h.Engine.Deposits.GetUserDepositRequests(ctx, userID)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return c.Status(200).JSON(list)
	}

	list, err := h.Engine.Deposits.GetDepositRequests(ctx)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetDeposit(c *fiber.Ctx) error {
	deposit, err := h.Engine.Deposits.GetDepositRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(deposit)
}

func (h *Handler) CreateDeposit(c *fiber.Ctx) error {
	payload := new(queries.CreateDepositParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	deposit, err := h.Engine.Deposits.CreateDepositRequest(c.UserContext(), deposits.CreateInput{
		UserID:       payload.UserID,
		Amount:       payload.Amount,
		BusinessTier: payload.BusinessTier,
		Notes:        payload.Notes,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(deposit)
}

// reviewFail reports a deposit that is no longer pending as not found, the
// same way a missing one is reported.
func reviewFail(c *fiber.Ctx, err error) error {
	if errors.Is(err, types.ErrInvalidState) {
		return c.Status(404).JSON(helpers.Errors{
			Errors: []string{"ledger.deposit.not_found_or_processed"},
		})
	}

	return helpers.Fail(c, err)
}

func (h *Handler) ApproveDeposit(c *fiber.Ctx) error {
	deposit, err := h.Engine.Deposits.ApproveDepositRequest(c.UserContext(), c.Params("id"), helpers.ActorID(c))
	if err != nil {
		return reviewFail(c, err)
	}

	return c.Status(200).JSON(deposit)
}

func (h *Handler) RejectDeposit(c *fiber.Ctx) error {
	payload := new(queries.ReasonParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	deposit, err := h.Engine.Deposits.RejectDepositRequest(c.UserContext(), c.Params("id"), helpers.ActorID(c), payload.Reason)
	if err != nil {
		return reviewFail(c, err)
	}

	return c.Status(200).JSON(deposit)
}
