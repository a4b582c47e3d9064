package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/entities"
	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
)

func (h *Handler) GetProfitSummary(c *fiber.Ctx) error {
	payload := new(queries.PeriodQuery)
	if ok, err := parseQuery(c, payload); !ok {
		return err
	}

	summary, err := h.Engine.Profit.CalculateQuarterlyProfit(c.UserContext(), payload.ToPeriod())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(summary)
}

func (h *Handler) ProcessProfitSharing(c *fiber.Ctx) error {
	payload := new(queries.ProcessProfitParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	period := queries.PeriodQuery{Period: payload.Period, PeriodValue: payload.PeriodValue}.ToPeriod()
	outcome, err := h.Engine.ProcessQuarterlyProfitSharing(c.UserContext(), period, helpers.ActorID(c), payload.Maxout())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(entities.ProfitSharingToEntity(outcome.Sharing, outcome.Distributions))
}

func (h *Handler) GetProfitSharings(c *fiber.Ctx) error {
	sharings, err := h.Engine.Profit.GetProfitSharings(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(sharings)
}

func (h *Handler) GetProfitSharing(c *fiber.Ctx) error {
	ctx := c.UserContext()

	sharing, err := h.Engine.Profit.GetProfitSharing(ctx, c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	distributions, err := h.Engine.Profit.GetProfitDistributionsBySharing(ctx, sharing.ID)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(entities.ProfitSharingToEntity(sharing, distributions))
}

func (h *Handler) PayAllDistributions(c *fiber.Ctx) error {
	result, err := h.Engine.ProcessAllDistributionPayments(c.UserContext(), c.Params("id"), helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(result)
}

func (h *Handler) PayDistribution(c *fiber.Ctx) error {
	distribution, err := h.Engine.MarkDistributionPaid(c.UserContext(), c.Params("id"), helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(distribution)
}

func (h *Handler) ProcessQuarter(c *fiber.Ctx) error {
	payload := new(queries.PeriodQuery)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	result, err := h.Engine.ProcessQuarter(c.UserContext(), payload.ToPeriod(), helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(result)
}
