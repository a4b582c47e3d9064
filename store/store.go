// Package store is the persistence boundary of the ledger. Every workflow
// reads and writes through Store; Atomic groups a workflow's writes into a
// single commit.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/types"
)

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("duplicate key")

type TransactionFilter struct {
	UserID string
	Type   types.TransactionType
	Status types.TransactionStatus
	From   time.Time
	To     time.Time
}

type Store interface {
	// Atomic runs fn against a transactional view. Writes made through tx are
	// committed when fn returns nil and discarded otherwise.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	GetUserBalance(ctx context.Context, userID string) (*models.UserBalance, error)
	SaveUserBalance(ctx context.Context, balance *models.UserBalance) error
	ListShareholders(ctx context.Context) ([]*models.UserBalance, error)

	GetBusinessTierConfig(ctx context.Context, tier types.TierName) (*models.BusinessTierConfig, error)
	SaveBusinessTierConfig(ctx context.Context, cfg *models.BusinessTierConfig) error
	ListBusinessTierConfigs(ctx context.Context) ([]*models.BusinessTierConfig, error)

	GetDepositRequest(ctx context.Context, id string) (*models.DepositRequest, error)
	CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error
	UpdateDepositRequest(ctx context.Context, req *models.DepositRequest) error
	ListDepositRequests(ctx context.Context, userID string) ([]*models.DepositRequest, error)

	CreateUserSharesHistory(ctx context.Context, history *models.UserSharesHistory) error
	ListUserSharesHistory(ctx context.Context, userID string) ([]*models.UserSharesHistory, error)

	GetStaffKpi(ctx context.Context, id string) (*models.StaffKpi, error)
	FindStaffKpi(ctx context.Context, staffID string, period types.Period) (*models.StaffKpi, error)
	CreateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error
	UpdateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error
	ListStaffKpisByPeriod(ctx context.Context, period types.Period) ([]*models.StaffKpi, error)
	ListStaffKpisByStaff(ctx context.Context, staffID string) ([]*models.StaffKpi, error)

	GetProfitSharing(ctx context.Context, id string) (*models.ProfitSharing, error)
	GetProfitSharingByPeriod(ctx context.Context, period types.Period) (*models.ProfitSharing, error)
	CreateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error
	UpdateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error
	ListProfitSharings(ctx context.Context) ([]*models.ProfitSharing, error)

	GetProfitDistribution(ctx context.Context, id string) (*models.ProfitDistribution, error)
	CreateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error
	UpdateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error
	ListProfitDistributionsBySharing(ctx context.Context, sharingID string) ([]*models.ProfitDistribution, error)
	ListUnpaidDistributionsByShareholder(ctx context.Context, shareholderID string) ([]*models.ProfitDistribution, error)

	GetReferral(ctx context.Context, id string) (*models.Referral, error)
	GetReferralByCode(ctx context.Context, code string) (*models.Referral, error)
	CreateReferral(ctx context.Context, referral *models.Referral) error
	UpdateReferral(ctx context.Context, referral *models.Referral) error
	ListReferrals(ctx context.Context, referrerID string) ([]*models.Referral, error)

	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	UpdateTransaction(ctx context.Context, transaction *models.Transaction) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)

	GetSystemConfig(ctx context.Context, key string) (*models.SystemConfig, error)
	SaveSystemConfig(ctx context.Context, cfg *models.SystemConfig) error
	ListSystemConfigs(ctx context.Context) ([]*models.SystemConfig, error)

	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error)

	GetCard(ctx context.Context, id string) (*models.Card, error)
	GetCardByNumber(ctx context.Context, number string) (*models.Card, error)
	CreateCard(ctx context.Context, card *models.Card) error
	UpdateCard(ctx context.Context, card *models.Card) error
	// ListCards returns every card, or the cards held by userID when set.
	ListCards(ctx context.Context, userID string) ([]*models.Card, error)

	CreateQrCheckin(ctx context.Context, checkin *models.QrCheckin) error
	ListQrCheckins(ctx context.Context, cardID string) ([]*models.QrCheckin, error)
}
