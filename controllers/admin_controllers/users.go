package admin_controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/users"
)

func (h *Handler) GetUsers(c *fiber.Ctx) error {
	list, err := h.Engine.Users.GetUsers(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(list)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, err := h.Engine.Users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(user)
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	payload := new(queries.CreateUserParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	user, err := h.Engine.Users.CreateUser(c.UserContext(), helpers.ActorID(c), users.CreateInput{
		Name:         payload.Name,
		Email:        payload.Email,
		Role:         payload.Role,
		BusinessTier: payload.BusinessTier,
		CardPrice:    payload.CardPrice,
	})
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(201).JSON(user)
}

func (h *Handler) UpdateUserRole(c *fiber.Ctx) error {
	payload := new(queries.UpdateRoleParams)
	if ok, err := parse(c, payload); !ok {
		return err
	}

	user, err := h.Engine.Users.UpdateUserRole(c.UserContext(), helpers.ActorID(c), helpers.ActorRole(c), c.Params("id"), payload.Role)
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(user)
}
