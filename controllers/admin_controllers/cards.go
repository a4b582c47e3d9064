package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/cards"
)

func (h *Handler) GetCards(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if userID := c.Query("user_id"); userID != "" {
		list, err := h.Engine.Cards.GetUserCards(ctx, userID)
		if err != nil {
			return helpers.Fail(c, err)
		}
		return c.Status(200).JSON(list)
	}

	list, err := h.Engine.Cards.GetCards(ctx)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetCard(c *fiber.Ctx) error {
	card, err := h.Engine.Cards.GetCard(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(card)
}

func (h *Handler) CreateCard(c *fiber.Ctx) error {
	payload := new(queries.CreateCardParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	card, err := h.Engine.CreateCard(c.UserContext(), helpers.ActorID(c), cards.CreateInput{
		CardNumber:        payload.CardNumber,
		CardType:          payload.CardType,
		CustomerName:      payload.CustomerName,
		UserID:            payload.UserID,
		Price:             payload.Price,
		RemainingSessions: payload.RemainingSessions,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(card)
}

func (h *Handler) UpdateCard(c *fiber.Ctx) error {
	payload := new(queries.UpdateCardParams)
	if err := c.BodyParser(payload); err != nil {
		return helpers.InvalidBody(c)
	}

	card, err := h.Engine.UpdateCard(c.UserContext(), helpers.ActorID(c), c.Params("id"), cards.UpdateInput{
		CardType:     payload.CardType,
		CustomerName: payload.CustomerName,
		Price:        payload.Price,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(card)
}

func (h *Handler) CancelCard(c *fiber.Ctx) error {
	card, err := h.Engine.CancelCard(c.UserContext(), helpers.ActorID(c), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(card)
}

func (h *Handler) AddCardSessions(c *fiber.Ctx) error {
	payload := new(queries.SessionsParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	card, err := h.Engine.AddCardSessions(c.UserContext(), helpers.ActorID(c), c.Params("id"), payload.Sessions)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(card)
}

func (h *Handler) UseCardSessions(c *fiber.Ctx) error {
	payload := new(queries.SessionsParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	card, err := h.Engine.Cards.UpdateCardSessions(c.UserContext(), helpers.ActorID(c), c.Params("id"), payload.Sessions)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(card)
}

func (h *Handler) GetCardCheckins(c *fiber.Ctx) error {
	list, err := h.Engine.Cards.GetCardCheckins(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) CreateQrCheckin(c *fiber.Ctx) error {
	payload := new(queries.CreateCheckinParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	checkin, err := h.Engine.Cards.CreateQrCheckin(c.UserContext(), helpers.ActorID(c), cards.CheckinInput{
		CardID:      payload.CardID,
		SessionType: payload.SessionType,
		Notes:       payload.Notes,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(checkin)
}
