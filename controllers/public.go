package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/services/ledger"
)

// Handler serves the user-facing endpoints.
type Handler struct {
	Engine *ledger.Engine
}

func GetTimestamp(c *fiber.Ctx) error {
	return c.Status(200).JSON(time.Now())
}

func (h *Handler) GetBusinessTiers(c *fiber.Ctx) error {
	tiers, err := h.Engine.Tiers.GetBusinessTierConfigs(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(tiers)
}
