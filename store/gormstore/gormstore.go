// Package gormstore persists the ledger in postgres through gorm. Inside
// Atomic, single-row reads take a FOR UPDATE row lock so read-modify-write
// cycles on balances, referrals and requests serialise at the database.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Store struct {
	db   *gorm.DB
	inTx bool
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

// Migrate creates or updates every ledger table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(models.All()...)
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

func (s *Store) query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// row is used for single-record reads; inside a transaction it locks the row.
func (s *Store) row(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx)
	if s.inTx {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	return tx
}

func first[T any](tx *gorm.DB, entity, id string, query string, args ...interface{}) (*T, error) {
	var record T
	result := tx.Where(query, args...).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError(entity, id)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("can't load %s %s: %w", entity, id, result.Error)
	}

	return &record, nil
}

func find[T any](tx *gorm.DB) ([]*T, error) {
	records := make([]*T, 0)
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func saveErr(entity string, err error) error {
	if err != nil {
		return fmt.Errorf("can't save %s: %w", entity, err)
	}

	return nil
}

func updated(entity, id string, result *gorm.DB) error {
	if result.Error != nil {
		return saveErr(entity, result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewNotFoundError(entity, id)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](s.row(ctx), "user", id, "id = ?", id)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ensureID(&user.ID)
	return saveErr("user", s.query(ctx).Create(user).Error)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return updated("user", user.ID, s.query(ctx).Model(user).Select("*").Updates(user))
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	return find[models.User](s.query(ctx).Order("id"))
}

func (s *Store) GetUserBalance(ctx context.Context, userID string) (*models.UserBalance, error) {
	return first[models.UserBalance](s.row(ctx), "user_balance", userID, "user_id = ?", userID)
}

func (s *Store) SaveUserBalance(ctx context.Context, balance *models.UserBalance) error {
	if balance.AvailableBalance < 0 || balance.TotalShares < 0 {
		return fmt.Errorf("user_balance %s: negative balance or shares", balance.UserID)
	}

	return saveErr("user_balance", s.query(ctx).Save(balance).Error)
}

func (s *Store) ListShareholders(ctx context.Context) ([]*models.UserBalance, error) {
	return find[models.UserBalance](s.query(ctx).Where("total_shares > 0").Order("user_id"))
}

func (s *Store) GetBusinessTierConfig(ctx context.Context, tier types.TierName) (*models.BusinessTierConfig, error) {
	return first[models.BusinessTierConfig](s.query(ctx), "business_tier_config", tier, "tier_name = ?", tier)
}

func (s *Store) SaveBusinessTierConfig(ctx context.Context, cfg *models.BusinessTierConfig) error {
	return saveErr("business_tier_config", s.query(ctx).Save(cfg).Error)
}

func (s *Store) ListBusinessTierConfigs(ctx context.Context) ([]*models.BusinessTierConfig, error) {
	return find[models.BusinessTierConfig](s.query(ctx).Order("tier_name"))
}

func (s *Store) GetDepositRequest(ctx context.Context, id string) (*models.DepositRequest, error) {
	return first[models.DepositRequest](s.row(ctx), "deposit_request", id, "id = ?", id)
}

func (s *Store) CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	ensureID(&req.ID)
	return saveErr("deposit_request", s.query(ctx).Create(req).Error)
}

func (s *Store) UpdateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	return updated("deposit_request", req.ID, s.query(ctx).Model(req).Select("*").Updates(req))
}

func (s *Store) ListDepositRequests(ctx context.Context, userID string) ([]*models.DepositRequest, error) {
	tx := s.query(ctx).Order("created_at, id")
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	return find[models.DepositRequest](tx)
}

func (s *Store) CreateUserSharesHistory(ctx context.Context, history *models.UserSharesHistory) error {
	ensureID(&history.ID)
	return saveErr("user_shares_history", s.query(ctx).Create(history).Error)
}

func (s *Store) ListUserSharesHistory(ctx context.Context, userID string) ([]*models.UserSharesHistory, error) {
	tx := s.query(ctx).Order("timestamp, id")
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	return find[models.UserSharesHistory](tx)
}

func (s *Store) GetStaffKpi(ctx context.Context, id string) (*models.StaffKpi, error) {
	return first[models.StaffKpi](s.row(ctx), "staff_kpi", id, "id = ?", id)
}

func (s *Store) FindStaffKpi(ctx context.Context, staffID string, period types.Period) (*models.StaffKpi, error) {
	return first[models.StaffKpi](
		s.row(ctx), "staff_kpi", staffID+"@"+period.String(),
		"staff_id = ? AND period = ? AND period_value = ?", staffID, period.Kind, period.Value,
	)
}

func (s *Store) CreateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error {
	ensureID(&kpi.ID)
	return saveErr("staff_kpi", s.query(ctx).Create(kpi).Error)
}

func (s *Store) UpdateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error {
	return updated("staff_kpi", kpi.ID, s.query(ctx).Model(kpi).Select("*").Updates(kpi))
}

func (s *Store) ListStaffKpisByPeriod(ctx context.Context, period types.Period) ([]*models.StaffKpi, error) {
	return find[models.StaffKpi](
		s.query(ctx).Where("period = ? AND period_value = ?", period.Kind, period.Value).Order("created_at, id"),
	)
}

func (s *Store) ListStaffKpisByStaff(ctx context.Context, staffID string) ([]*models.StaffKpi, error) {
	return find[models.StaffKpi](s.query(ctx).Where("staff_id = ?", staffID).Order("created_at, id"))
}

func (s *Store) GetProfitSharing(ctx context.Context, id string) (*models.ProfitSharing, error) {
	return first[models.ProfitSharing](s.row(ctx), "profit_sharing", id, "id = ?", id)
}

func (s *Store) GetProfitSharingByPeriod(ctx context.Context, period types.Period) (*models.ProfitSharing, error) {
	return first[models.ProfitSharing](
		s.query(ctx), "profit_sharing", period.String(),
		"period = ? AND period_value = ?", period.Kind, period.Value,
	)
}

func (s *Store) CreateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error {
	ensureID(&sharing.ID)
	return saveErr("profit_sharing", s.query(ctx).Create(sharing).Error)
}

func (s *Store) UpdateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error {
	return updated("profit_sharing", sharing.ID, s.query(ctx).Model(sharing).Select("*").Updates(sharing))
}

func (s *Store) ListProfitSharings(ctx context.Context) ([]*models.ProfitSharing, error) {
	return find[models.ProfitSharing](s.query(ctx).Order("created_at, id"))
}

func (s *Store) GetProfitDistribution(ctx context.Context, id string) (*models.ProfitDistribution, error) {
	return first[models.ProfitDistribution](s.row(ctx), "profit_distribution", id, "id = ?", id)
}

func (s *Store) CreateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error {
	ensureID(&distribution.ID)
	return saveErr("profit_distribution", s.query(ctx).Create(distribution).Error)
}

func (s *Store) UpdateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error {
	return updated("profit_distribution", distribution.ID, s.query(ctx).Model(distribution).Select("*").Updates(distribution))
}

func (s *Store) ListProfitDistributionsBySharing(ctx context.Context, sharingID string) ([]*models.ProfitDistribution, error) {
	return find[models.ProfitDistribution](s.query(ctx).Where("profit_sharing_id = ?", sharingID).Order("shareholder_id"))
}

func (s *Store) ListUnpaidDistributionsByShareholder(ctx context.Context, shareholderID string) ([]*models.ProfitDistribution, error) {
	return find[models.ProfitDistribution](
		s.query(ctx).Where("shareholder_id = ? AND paid = ?", shareholderID, false).Order("created_at, id"),
	)
}

func (s *Store) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	return first[models.Referral](s.row(ctx), "referral", id, "id = ?", id)
}

func (s *Store) GetReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	return first[models.Referral](s.row(ctx), "referral", code, "referral_code = ?", code)
}

func (s *Store) CreateReferral(ctx context.Context, referral *models.Referral) error {
	ensureID(&referral.ID)
	return saveErr("referral", s.query(ctx).Create(referral).Error)
}

func (s *Store) UpdateReferral(ctx context.Context, referral *models.Referral) error {
	return updated("referral", referral.ID, s.query(ctx).Model(referral).Select("*").Updates(referral))
}

func (s *Store) ListReferrals(ctx context.Context, referrerID string) ([]*models.Referral, error) {
	tx := s.query(ctx).Order("created_at, id")
	if referrerID != "" {
		tx = tx.Where("referrer_id = ?", referrerID)
	}

	return find[models.Referral](tx)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return first[models.Transaction](s.row(ctx), "transaction", id, "id = ?", id)
}

func (s *Store) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	ensureID(&transaction.ID)
	return saveErr("transaction", s.query(ctx).Create(transaction).Error)
}

func (s *Store) UpdateTransaction(ctx context.Context, transaction *models.Transaction) error {
	return updated("transaction", transaction.ID, s.query(ctx).Model(transaction).Select("*").Updates(transaction))
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error) {
	tx := s.query(ctx).Order("created_at, id")
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		tx = tx.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		tx = tx.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		tx = tx.Where("created_at < ?", filter.To)
	}

	return find[models.Transaction](tx)
}

func (s *Store) GetSystemConfig(ctx context.Context, key string) (*models.SystemConfig, error) {
	return first[models.SystemConfig](s.query(ctx), "system_config", key, "config_key = ?", key)
}

func (s *Store) SaveSystemConfig(ctx context.Context, cfg *models.SystemConfig) error {
	return saveErr("system_config", s.query(ctx).Save(cfg).Error)
}

func (s *Store) ListSystemConfigs(ctx context.Context) ([]*models.SystemConfig, error) {
	return find[models.SystemConfig](s.query(ctx).Order("config_key"))
}

func (s *Store) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	ensureID(&log.ID)
	return saveErr("audit_log", s.query(ctx).Create(log).Error)
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	tx := s.query(ctx).Order("created_at desc, id desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	return find[models.AuditLog](tx)
}

func (s *Store) GetCard(ctx context.Context, id string) (*models.Card, error) {
	return first[models.Card](s.row(ctx), "card", id, "id = ?", id)
}

func (s *Store) GetCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	return first[models.Card](s.row(ctx), "card", number, "card_number = ?", number)
}

func (s *Store) CreateCard(ctx context.Context, card *models.Card) error {
	ensureID(&card.ID)
	return saveErr("card", s.query(ctx).Create(card).Error)
}

func (s *Store) UpdateCard(ctx context.Context, card *models.Card) error {
	return updated("card", card.ID, s.query(ctx).Model(card).Select("*").Updates(card))
}

func (s *Store) ListCards(ctx context.Context, userID string) ([]*models.Card, error) {
	tx := s.query(ctx).Order("created_at, id")
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	return find[models.Card](tx)
}

func (s *Store) CreateQrCheckin(ctx context.Context, checkin *models.QrCheckin) error {
	ensureID(&checkin.ID)
	return saveErr("qr_checkin", s.query(ctx).Create(checkin).Error)
}

func (s *Store) ListQrCheckins(ctx context.Context, cardID string) ([]*models.QrCheckin, error) {
	tx := s.query(ctx).Order("created_at, id")
	if cardID != "" {
		tx = tx.Where("card_id = ?", cardID)
	}

	return find[models.QrCheckin](tx)
}
