package referral_controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/ledger"
	"github.com/phuanduong/ledger/services/referrals"
)

type Handler struct {
	Engine *ledger.Engine
}

func validated(c *fiber.Ctx, payload interface{}) (bool, error) {
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

func (h *Handler) CreateReferral(c *fiber.Ctx) error {
	payload := new(queries.CreateReferralParams)
	if ok, err := validated(c, payload); !ok {
		return err
	}

	var rate *decimal.Decimal
	if payload.CommissionRate.Valid {
		rate = &payload.CommissionRate.Decimal
	}

	referral, err := h.Engine.CreateReferral(c.UserContext(), helpers.ActorID(c), referrals.CreateInput{
		ReferrerID:        payload.ReferrerID,
		ReferralCode:      payload.ReferralCode,
		CustomerName:      payload.CustomerName,
		ContributionValue: payload.ContributionValue,
		CommissionRate:    rate,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(referral)
}

func (h *Handler) GetReferrals(c *fiber.Ctx) error {
	referrerID := c.Query("referrer_id")
	if referrerID == "" {
		return helpers.InvalidQuery(c)
	}

	list, err := h.Engine.Referrals.GetReferralsByReferrer(c.UserContext(), referrerID)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetReferralByCode(c *fiber.Ctx) error {
	referral, err := h.Engine.Referrals.GetReferralByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(referral)
}

func (h *Handler) GenerateReferralCode(c *fiber.Ctx) error {
	code, err := h.Engine.Referrals.GenerateReferralCode(c.UserContext(), c.Params("staff_id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(fiber.Map{"referral_code": code})
}

func (h *Handler) ProcessFirstTransaction(c *fiber.Ctx) error {
	payload := new(queries.FirstTransactionParams)
	if ok, err := validated(c, payload); !ok {
		return err
	}

	referral, err := h.Engine.Referrals.ProcessFirstTransaction(c.UserContext(), c.Params("code"), payload.TransactionID, helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(referral)
}

func (h *Handler) GetCommission(c *fiber.Ctx) error {
	outstanding, err := h.Engine.Referrals.CalculateReferralCommission(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(fiber.Map{"outstanding": outstanding})
}

func (h *Handler) PayCommission(c *fiber.Ctx) error {
	payload := new(queries.AmountParams)
	if ok, err := validated(c, payload); !ok {
		return err
	}

	referral, err := h.Engine.Referrals.MarkCommissionPaid(c.UserContext(), c.Params("id"), payload.Amount, helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(referral)
}

func (h *Handler) PayAllCommissions(c *fiber.Ctx) error {
	total, err := h.Engine.Referrals.ProcessCommissionPayments(c.UserContext(), c.Params("referrer_id"), helpers.ActorID(c))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(fiber.Map{"total_paid": total})
}
