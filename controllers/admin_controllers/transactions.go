package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/withdrawals"
)

func toInput(p *queries.CreateTransactionParams) withdrawals.TransactionInput {
	return withdrawals.TransactionInput{
		UserID:      p.UserID,
		Type:        p.Type,
		Amount:      p.Amount,
		Description: p.Description,
		Notes:       p.Notes,
	}
}

// CreateTransaction books an approved income or expense entry.
func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	payload := new(queries.CreateTransactionParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	transaction, err := h.Engine.Withdrawals.CreateTransaction(c.UserContext(), helpers.ActorID(c), toInput(payload))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(transaction)
}

func (h *Handler) CreateCashFlowTransaction(c *fiber.Ctx) error {
	payload := new(queries.CreateTransactionParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	transaction, err := h.Engine.CreateCashFlowTransaction(c.UserContext(), helpers.ActorID(c), toInput(payload))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(transaction)
}

func (h *Handler) GetCashFlowTransactions(c *fiber.Ctx) error {
	filters := new(queries.TransactionFilters)
	if ok, err := parseQuery(c, filters); !ok {
		return err
	}

	ctx := c.UserContext()
	if filters.Type != "" {
		list, err := h.Engine.Withdrawals.GetCashFlowTransactionsByType(ctx, filters.Type)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return c.Status(200).JSON(list)
	}

	list, err := h.Engine.Withdrawals.GetCashFlowTransactions(ctx, filters.UserID)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetPendingTransactions(c *fiber.Ctx) error {
	list, err := h.Engine.Withdrawals.GetPendingTransactions(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	transaction, err := h.Engine.Withdrawals.GetTransaction(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(transaction)
}

func (h *Handler) ApproveTransaction(c *fiber.Ctx) error {
	transaction, err := h.Engine.ApproveCashFlowTransaction(c.UserContext(), c.Params("id"), helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(transaction)
}

func (h *Handler) RejectTransaction(c *fiber.Ctx) error {
	payload := new(queries.ReasonParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	transaction, err := h.Engine.Withdrawals.RejectCashFlowTransaction(c.UserContext(), c.Params("id"), helpers.ActorID(c), payload.Reason)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(transaction)
}

func (h *Handler) CreateWithdrawal(c *fiber.Ctx) error {
	payload := new(queries.CreateWithdrawalParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	transaction, err := h.Engine.CreateWithdrawalRequest(c.UserContext(), payload.UserID, payload.Amount, payload.Description)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(transaction)
}

func (h *Handler) GetWithdrawalTax(c *fiber.Ctx) error {
	amount, ok := helpers.QueryInt64(c, "amount")
	if !ok || amount <= 0 {
		return helpers.InvalidQuery(c)
	}

	tax, err := h.Engine.CalculateWithdrawalTax(c.UserContext(), amount)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(fiber.Map{
		"amount":     amount,
		"tax":        tax,
		"net_amount": amount - tax,
	})
}
