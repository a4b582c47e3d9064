package admin_controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/tiers"
)

func (h *Handler) GetSettings(c *fiber.Ctx) error {
	configs, err := h.Engine.Settings.GetSystemConfigs(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(configs)
}

func (h *Handler) UpdateSetting(c *fiber.Ctx) error {
	payload := new(queries.UpdateSettingParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	cfg, err := h.Engine.Settings.UpdateSystemConfig(c.UserContext(), c.Params("key"), payload.Value, payload.Description, helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(cfg)
}

func (h *Handler) UpdateTier(c *fiber.Ctx) error {
	payload := new(queries.UpdateTierParams)
	if err := c.BodyParser(payload); err != nil {
		return helpers.InvalidBody(c)
	}

	cfg, err := h.Engine.Tiers.UpdateBusinessTierConfig(c.UserContext(), helpers.ActorID(c), tiers.TierConfigInput{
		TierName:            c.Params("name"),
		MinInvestmentAmount: payload.MinInvestmentAmount,
		ShareMultiplier:     payload.ShareMultiplier,
		MaxShares:           null.Int64FromPtr(payload.MaxShares),
		Description:         payload.Description,
		Benefits:            payload.Benefits,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(cfg)
}

func (h *Handler) GetAuditLogs(c *fiber.Ctx) error {
	limit, ok := helpers.QueryInt64(c, "limit")
	if !ok {
		limit = 0
	}

	logs, err := h.Engine.Audit.GetAuditLogs(c.UserContext(), int(limit))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(logs)
}
