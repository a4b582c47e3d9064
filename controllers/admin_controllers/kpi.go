package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/kpi"
	"github.com/phuanduong/ledger/types"
)

func (h *Handler) GetStaffKpis(c *fiber.Ctx) error {
	payload := new(queries.PeriodQuery)
	if ok, err := parseQuery(c, payload); !ok {
		return err
	}

	kpis, err := h.Engine.Kpi.GetStaffKpis(c.UserContext(), payload.ToPeriod())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(kpis)
}

func (h *Handler) RecordStaffKpi(c *fiber.Ctx) error {
	payload := new(queries.RecordKpiParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	record, err := h.Engine.RecordStaffKpi(c.UserContext(), helpers.ActorID(c), kpi.RecordInput{
		StaffID:           payload.StaffID,
		Period:            types.Period{Kind: payload.Period, Value: payload.PeriodValue},
		CardSales:         payload.CardSales,
		CustomerRetention: payload.CustomerRetention,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(record)
}

func (h *Handler) GetStaffKpiPoints(c *fiber.Ctx) error {
	payload := new(queries.PeriodQuery)
	if ok, err := parseQuery(c, payload); !ok {
		return err
	}

	score, err := h.Engine.CalculateStaffKpiPoints(c.UserContext(), c.Params("staff_id"), payload.ToPeriod())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(score)
}

func (h *Handler) ProcessKpiShares(c *fiber.Ctx) error {
	payload := new(queries.PeriodQuery)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	result, err := h.Engine.ProcessQuarterlyShares(c.UserContext(), payload.ToPeriod())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(result)
}
