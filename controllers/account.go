package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/entities"
	"github.com/phuanduong/ledger/controllers/helpers"
)

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Params("id")

	if _, err := h.Engine.Users.GetUser(ctx, userID); err != nil {
		return helpers.Fail(c, err)
	}

	balance, err := h.Engine.Balances.GetUserBalance(ctx, userID)
	if err != nil {
		return helpers.Fail(c, err)
	}

	status, err := h.Engine.CheckMaxoutLimit(ctx, userID)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(entities.BalanceToEntity(balance, status))
}

func (h *Handler) GetCards(c *fiber.Ctx) error {
	cards, err := h.Engine.Cards.GetUserCards(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(cards)
}

func (h *Handler) GetSharesHistory(c *fiber.Ctx) error {
	history, err := h.Engine.Balances.GetUserSharesHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(history)
}

func (h *Handler) GetDeposits(c *fiber.Ctx) error {
	deposits, err := h.Engine.Deposits.GetUserDepositRequests(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(deposits)
}

func (h *Handler) GetStaffKpis(c *fiber.Ctx) error {
	kpis, err := h.Engine.Kpi.GetStaffKpisByStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(kpis)
}

func (h *Handler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.Engine.Withdrawals.GetCashFlowTransactions(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(transactions)
}

func (h *Handler) ValidateWithdrawal(c *fiber.Ctx) error {
	amount, ok := helpers.QueryInt64(c, "amount")
	if !ok {
		return helpers.InvalidQuery(c)
	}

	result, err := h.Engine.ValidateWithdrawalBalance(c.UserContext(), c.Params("id"), amount)
	if err != nil {
		return helpers.Fail(c, err)
	}

	tax, err := h.Engine.CalculateWithdrawalTax(c.UserContext(), amount)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(fiber.Map{
		"valid":             result.Valid,
		"available_balance": result.AvailableBalance,
		"minimum":           result.Minimum,
		"reason":            result.Reason,
		"tax":               tax,
		"net_amount":        amount - tax,
	})
}
