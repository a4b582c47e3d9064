// Package users registers ledger users and manages their roles.
package users

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Service struct {
	store  store.Store
	hook   audit.Hook
	logger *logrus.Entry
}

func NewService(s store.Store, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, hook: hook, logger: logger}
}

type CreateInput struct {
	Name         string
	Email        string
	Role         string
	BusinessTier types.TierName
	// CardPrice is the opening card price; once the user holds a card it is
	// recomputed from the cards.
	CardPrice int64
}

func (in CreateInput) Validate() error {
	if in.Name == "" {
		return types.NewValidationError("name", "is required")
	}
	if in.Role != "" && !types.IsRole(in.Role) {
		return types.NewValidationError("role", "unknown role "+in.Role)
	}
	if in.BusinessTier != "" && !types.IsTier(in.BusinessTier) {
		return types.NewValidationError("business_tier", "unknown tier "+in.BusinessTier)
	}
	if in.CardPrice < 0 {
		return types.NewValidationError("card_price", "must not be negative")
	}

	return nil
}

func (s *Service) CreateUser(ctx context.Context, actorID string, in CreateInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		BusinessTier: in.BusinessTier,
		CardPrice:    in.CardPrice,
	}
	if user.Role == "" {
		user.Role = types.RoleUser
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"tier":    user.BusinessTier,
	}).Info("User created")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "user.create",
		TargetType: "user",
		TargetID:   user.ID,
		After:      user,
	})

	return user, nil
}

// UpdateUserRole changes a user's role. Nobody changes their own role, and
// only a superadmin grants or revokes superadmin.
func (s *Service) UpdateUserRole(ctx context.Context, actorID, actorRole, userID, role string) (*models.User, error) {
	if !types.IsRole(role) {
		return nil, types.NewValidationError("role", "unknown role "+role)
	}
	if actorID == userID {
		return nil, types.NewValidationError("user_id", "can't change own role")
	}

	var before, user *models.User
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		user, err = tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if (user.Role == types.RoleSuperAdmin || role == types.RoleSuperAdmin) && actorRole != types.RoleSuperAdmin {
			return types.NewValidationError("role", "superadmin role is managed by superadmins")
		}

		copied := *user
		before = &copied
		if user.Role == role {
			return nil
		}
		user.Role = role

		return tx.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	if before.Role == role {
		return user, nil
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    before.Role,
		"to":      role,
	}).Info("User role updated")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "user.role",
		TargetType: "user",
		TargetID:   userID,
		Before:     before,
		After:      user,
	})

	return user, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
