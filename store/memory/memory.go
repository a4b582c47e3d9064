// Package memory is a map-backed store used by tests, demos and single-node
// deployments. Atomic serialises writers and restores a snapshot when the
// callback fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type tables struct {
	users         map[string]models.User
	balances      map[string]models.UserBalance
	tiers         map[string]models.BusinessTierConfig
	deposits      map[string]models.DepositRequest
	sharesHistory map[string]models.UserSharesHistory
	staffKpis     map[string]models.StaffKpi
	sharings      map[string]models.ProfitSharing
	distributions map[string]models.ProfitDistribution
	referrals     map[string]models.Referral
	transactions  map[string]models.Transaction
	configs       map[string]models.SystemConfig
	auditLogs     map[string]models.AuditLog
	cards         map[string]models.Card
	checkins      map[string]models.QrCheckin
}

func newTables() *tables {
	return &tables{
		users:         map[string]models.User{},
		balances:      map[string]models.UserBalance{},
		tiers:         map[string]models.BusinessTierConfig{},
		deposits:      map[string]models.DepositRequest{},
		sharesHistory: map[string]models.UserSharesHistory{},
		staffKpis:     map[string]models.StaffKpi{},
		sharings:      map[string]models.ProfitSharing{},
		distributions: map[string]models.ProfitDistribution{},
		referrals:     map[string]models.Referral{},
		transactions:  map[string]models.Transaction{},
		configs:       map[string]models.SystemConfig{},
		auditLogs:     map[string]models.AuditLog{},
		cards:         map[string]models.Card{},
		checkins:      map[string]models.QrCheckin{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		users:         copyMap(t.users),
		balances:      copyMap(t.balances),
		tiers:         copyMap(t.tiers),
		deposits:      copyMap(t.deposits),
		sharesHistory: copyMap(t.sharesHistory),
		staffKpis:     copyMap(t.staffKpis),
		sharings:      copyMap(t.sharings),
		distributions: copyMap(t.distributions),
		referrals:     copyMap(t.referrals),
		transactions:  copyMap(t.transactions),
		configs:       copyMap(t.configs),
		auditLogs:     copyMap(t.auditLogs),
		cards:         copyMap(t.cards),
		checkins:      copyMap(t.checkins),
	}
}

type state struct {
	mu sync.Mutex
	t  *tables
}

type Store struct {
	state *state
	inTx  bool
	Now   func() time.Time
}

func New() *Store {
	return &Store{
		state: &state{t: newTables()},
		Now:   time.Now,
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) guard() func() {
	if s.inTx {
		return func() {}
	}

	s.state.mu.Lock()
	return s.state.mu.Unlock
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	snapshot := s.state.t.clone()
	tx := &Store{state: s.state, inTx: true, Now: s.Now}

	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.state.t = snapshot
		return err
	}

	return nil
}

func (s *Store) stamp(created, updated *time.Time) {
	now := s.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	*updated = now
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.guard()()
	return get(s.state.t.users, "user", id)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	defer s.guard()()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.stamp(&user.CreatedAt, &user.UpdatedAt)
	return insert(s.state.t.users, "user", user.ID, *user)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	defer s.guard()()
	s.stamp(nil, &user.UpdatedAt)
	return update(s.state.t.users, "user", user.ID, *user)
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	defer s.guard()()
	return list(s.state.t.users, nil, func(a, b *models.User) bool { return a.ID < b.ID }), nil
}

// Balances

func (s *Store) GetUserBalance(ctx context.Context, userID string) (*models.UserBalance, error) {
	defer s.guard()()
	return get(s.state.t.balances, "user_balance", userID)
}

func (s *Store) SaveUserBalance(ctx context.Context, balance *models.UserBalance) error {
	defer s.guard()()
	if balance.AvailableBalance < 0 || balance.TotalShares < 0 {
		return fmt.Errorf("user_balance %s: negative balance or shares", balance.UserID)
	}
	s.stamp(&balance.CreatedAt, &balance.UpdatedAt)
	s.state.t.balances[balance.UserID] = *balance
	return nil
}

func (s *Store) ListShareholders(ctx context.Context) ([]*models.UserBalance, error) {
	defer s.guard()()
	return list(
		s.state.t.balances,
		func(b *models.UserBalance) bool { return b.TotalShares > 0 },
		func(a, b *models.UserBalance) bool { return a.UserID < b.UserID },
	), nil
}

// Business tier configs

func (s *Store) GetBusinessTierConfig(ctx context.Context, tier types.TierName) (*models.BusinessTierConfig, error) {
	defer s.guard()()
	return get(s.state.t.tiers, "business_tier_config", tier)
}

func (s *Store) SaveBusinessTierConfig(ctx context.Context, cfg *models.BusinessTierConfig) error {
	defer s.guard()()
	s.stamp(&cfg.CreatedAt, &cfg.UpdatedAt)
	s.state.t.tiers[cfg.TierName] = *cfg
	return nil
}

func (s *Store) ListBusinessTierConfigs(ctx context.Context) ([]*models.BusinessTierConfig, error) {
	defer s.guard()()
	return list(s.state.t.tiers, nil, func(a, b *models.BusinessTierConfig) bool { return a.TierName < b.TierName }), nil
}

// Deposit requests

func (s *Store) GetDepositRequest(ctx context.Context, id string) (*models.DepositRequest, error) {
	defer s.guard()()
	return get(s.state.t.deposits, "deposit_request", id)
}

func (s *Store) CreateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	defer s.guard()()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	s.stamp(&req.CreatedAt, &req.UpdatedAt)
	return insert(s.state.t.deposits, "deposit_request", req.ID, *req)
}

func (s *Store) UpdateDepositRequest(ctx context.Context, req *models.DepositRequest) error {
	defer s.guard()()
	s.stamp(nil, &req.UpdatedAt)
	return update(s.state.t.deposits, "deposit_request", req.ID, *req)
}

func (s *Store) ListDepositRequests(ctx context.Context, userID string) ([]*models.DepositRequest, error) {
	defer s.guard()()
	return list(
		s.state.t.deposits,
		func(r *models.DepositRequest) bool { return userID == "" || r.UserID == userID },
		func(a, b *models.DepositRequest) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

// Shares history

func (s *Store) CreateUserSharesHistory(ctx context.Context, history *models.UserSharesHistory) error {
	defer s.guard()()
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = s.Now()
	}
	return insert(s.state.t.sharesHistory, "user_shares_history", history.ID, *history)
}

func (s *Store) ListUserSharesHistory(ctx context.Context, userID string) ([]*models.UserSharesHistory, error) {
	defer s.guard()()
	return list(
		s.state.t.sharesHistory,
		func(h *models.UserSharesHistory) bool { return userID == "" || h.UserID == userID },
		func(a, b *models.UserSharesHistory) bool { return byCreated(a.Timestamp, b.Timestamp, a.ID, b.ID) },
	), nil
}

// Staff KPIs

func (s *Store) GetStaffKpi(ctx context.Context, id string) (*models.StaffKpi, error) {
	defer s.guard()()
	return get(s.state.t.staffKpis, "staff_kpi", id)
}

func (s *Store) FindStaffKpi(ctx context.Context, staffID string, period types.Period) (*models.StaffKpi, error) {
	defer s.guard()()
	for _, k := range s.state.t.staffKpis {
		if k.StaffID == staffID && k.Period == period.Kind && k.PeriodValue == period.Value {
			kpi := k
			return &kpi, nil
		}
	}

	return nil, types.NewNotFoundError("staff_kpi", staffID+"@"+period.String())
}

func (s *Store) CreateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error {
	defer s.guard()()
	for _, k := range s.state.t.staffKpis {
		if k.StaffID == kpi.StaffID && k.Period == kpi.Period && k.PeriodValue == kpi.PeriodValue {
			return fmt.Errorf("staff_kpi %s@%s:%s: %w", kpi.StaffID, kpi.Period, kpi.PeriodValue, store.ErrDuplicate)
		}
	}
	if kpi.ID == "" {
		kpi.ID = uuid.NewString()
	}
	s.stamp(&kpi.CreatedAt, &kpi.UpdatedAt)
	return insert(s.state.t.staffKpis, "staff_kpi", kpi.ID, *kpi)
}

func (s *Store) UpdateStaffKpi(ctx context.Context, kpi *models.StaffKpi) error {
	defer s.guard()()
	s.stamp(nil, &kpi.UpdatedAt)
	return update(s.state.t.staffKpis, "staff_kpi", kpi.ID, *kpi)
}

func (s *Store) ListStaffKpisByPeriod(ctx context.Context, period types.Period) ([]*models.StaffKpi, error) {
	defer s.guard()()
	return list(
		s.state.t.staffKpis,
		func(k *models.StaffKpi) bool { return k.Period == period.Kind && k.PeriodValue == period.Value },
		func(a, b *models.StaffKpi) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

func (s *Store) ListStaffKpisByStaff(ctx context.Context, staffID string) ([]*models.StaffKpi, error) {
	defer s.guard()()
	return list(
		s.state.t.staffKpis,
		func(k *models.StaffKpi) bool { return k.StaffID == staffID },
		func(a, b *models.StaffKpi) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

// Profit sharing

func (s *Store) GetProfitSharing(ctx context.Context, id string) (*models.ProfitSharing, error) {
	defer s.guard()()
	return get(s.state.t.sharings, "profit_sharing", id)
}

func (s *Store) GetProfitSharingByPeriod(ctx context.Context, period types.Period) (*models.ProfitSharing, error) {
	defer s.guard()()
	for _, ps := range s.state.t.sharings {
		if ps.Period == period.Kind && ps.PeriodValue == period.Value {
			sharing := ps
			return &sharing, nil
		}
	}

	return nil, types.NewNotFoundError("profit_sharing", period.String())
}

func (s *Store) CreateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error {
	defer s.guard()()
	for _, ps := range s.state.t.sharings {
		if ps.Period == sharing.Period && ps.PeriodValue == sharing.PeriodValue {
			return fmt.Errorf("profit_sharing %s:%s: %w", sharing.Period, sharing.PeriodValue, store.ErrDuplicate)
		}
	}
	if sharing.ID == "" {
		sharing.ID = uuid.NewString()
	}
	s.stamp(&sharing.CreatedAt, &sharing.UpdatedAt)
	return insert(s.state.t.sharings, "profit_sharing", sharing.ID, *sharing)
}

func (s *Store) UpdateProfitSharing(ctx context.Context, sharing *models.ProfitSharing) error {
	defer s.guard()()
	s.stamp(nil, &sharing.UpdatedAt)
	return update(s.state.t.sharings, "profit_sharing", sharing.ID, *sharing)
}

func (s *Store) ListProfitSharings(ctx context.Context) ([]*models.ProfitSharing, error) {
	defer s.guard()()
	return list(s.state.t.sharings, nil, func(a, b *models.ProfitSharing) bool {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

// Profit distributions

func (s *Store) GetProfitDistribution(ctx context.Context, id string) (*models.ProfitDistribution, error) {
	defer s.guard()()
	return get(s.state.t.distributions, "profit_distribution", id)
}

func (s *Store) CreateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error {
	defer s.guard()()
	if distribution.ID == "" {
		distribution.ID = uuid.NewString()
	}
	s.stamp(&distribution.CreatedAt, &distribution.UpdatedAt)
	return insert(s.state.t.distributions, "profit_distribution", distribution.ID, *distribution)
}

func (s *Store) UpdateProfitDistribution(ctx context.Context, distribution *models.ProfitDistribution) error {
	defer s.guard()()
	s.stamp(nil, &distribution.UpdatedAt)
	return update(s.state.t.distributions, "profit_distribution", distribution.ID, *distribution)
}

func (s *Store) ListProfitDistributionsBySharing(ctx context.Context, sharingID string) ([]*models.ProfitDistribution, error) {
	defer s.guard()()
	return list(
		s.state.t.distributions,
		func(d *models.ProfitDistribution) bool { return d.ProfitSharingID == sharingID },
		func(a, b *models.ProfitDistribution) bool { return a.ShareholderID < b.ShareholderID },
	), nil
}

func (s *Store) ListUnpaidDistributionsByShareholder(ctx context.Context, shareholderID string) ([]*models.ProfitDistribution, error) {
	defer s.guard()()
	return list(
		s.state.t.distributions,
		func(d *models.ProfitDistribution) bool { return d.ShareholderID == shareholderID && !d.Paid },
		func(a, b *models.ProfitDistribution) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

// Referrals

func (s *Store) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	defer s.guard()()
	return get(s.state.t.referrals, "referral", id)
}

func (s *Store) GetReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	defer s.guard()()
	for _, r := range s.state.t.referrals {
		if r.ReferralCode == code {
			referral := r
			return &referral, nil
		}
	}

	return nil, types.NewNotFoundError("referral", code)
}

func (s *Store) CreateReferral(ctx context.Context, referral *models.Referral) error {
	defer s.guard()()
	for _, r := range s.state.t.referrals {
		if r.ReferralCode == referral.ReferralCode {
			return fmt.Errorf("referral code %s: %w", referral.ReferralCode, store.ErrDuplicate)
		}
	}
	if referral.ID == "" {
		referral.ID = uuid.NewString()
	}
	s.stamp(&referral.CreatedAt, &referral.UpdatedAt)
	return insert(s.state.t.referrals, "referral", referral.ID, *referral)
}

func (s *Store) UpdateReferral(ctx context.Context, referral *models.Referral) error {
	defer s.guard()()
	s.stamp(nil, &referral.UpdatedAt)
	return update(s.state.t.referrals, "referral", referral.ID, *referral)
}

func (s *Store) ListReferrals(ctx context.Context, referrerID string) ([]*models.Referral, error) {
	defer s.guard()()
	return list(
		s.state.t.referrals,
		func(r *models.Referral) bool { return referrerID == "" || r.ReferrerID == referrerID },
		func(a, b *models.Referral) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

// Transactions

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	defer s.guard()()
	return get(s.state.t.transactions, "transaction", id)
}

func (s *Store) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	defer s.guard()()
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	s.stamp(&transaction.CreatedAt, &transaction.UpdatedAt)
	return insert(s.state.t.transactions, "transaction", transaction.ID, *transaction)
}

func (s *Store) UpdateTransaction(ctx context.Context, transaction *models.Transaction) error {
	defer s.guard()()
	s.stamp(nil, &transaction.UpdatedAt)
	return update(s.state.t.transactions, "transaction", transaction.ID, *transaction)
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error) {
	defer s.guard()()
	return list(
		s.state.t.transactions,
		func(t *models.Transaction) bool {
			if filter.UserID != "" && t.UserID != filter.UserID {
				return false
			}
			if filter.Type != "" && t.Type != filter.Type {
				return false
			}
			if filter.Status != "" && t.Status != filter.Status {
				return false
			}
			if !filter.From.IsZero() && t.CreatedAt.Before(filter.From) {
				return false
			}
			if !filter.To.IsZero() && !t.CreatedAt.Before(filter.To) {
				return false
			}
			return true
		},
		func(a, b *models.Transaction) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

// System configs

func (s *Store) GetSystemConfig(ctx context.Context, key string) (*models.SystemConfig, error) {
	defer s.guard()()
	return get(s.state.t.configs, "system_config", key)
}

func (s *Store) SaveSystemConfig(ctx context.Context, cfg *models.SystemConfig) error {
	defer s.guard()()
	s.stamp(&cfg.CreatedAt, &cfg.UpdatedAt)
	s.state.t.configs[cfg.ConfigKey] = *cfg
	return nil
}

func (s *Store) ListSystemConfigs(ctx context.Context) ([]*models.SystemConfig, error) {
	defer s.guard()()
	return list(s.state.t.configs, nil, func(a, b *models.SystemConfig) bool { return a.ConfigKey < b.ConfigKey }), nil
}

// Audit logs

func (s *Store) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	defer s.guard()()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = s.Now()
	}
	return insert(s.state.t.auditLogs, "audit_log", log.ID, *log)
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	defer s.guard()()
	logs := list(s.state.t.auditLogs, nil, func(a, b *models.AuditLog) bool {
		return byCreated(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, nil
}

// Cards

func (s *Store) GetCard(ctx context.Context, id string) (*models.Card, error) {
	defer s.guard()()
	return get(s.state.t.cards, "card", id)
}

func (s *Store) GetCardByNumber(ctx context.Context, number string) (*models.Card, error) {
	defer s.guard()()
	for _, c := range s.state.t.cards {
		if c.CardNumber == number {
			card := c
			return &card, nil
		}
	}

	return nil, types.NewNotFoundError("card", number)
}

func (s *Store) CreateCard(ctx context.Context, card *models.Card) error {
	defer s.guard()()
	for _, c := range s.state.t.cards {
		if c.CardNumber == card.CardNumber {
			return fmt.Errorf("card number %s: %w", card.CardNumber, store.ErrDuplicate)
		}
	}
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	s.stamp(&card.CreatedAt, &card.UpdatedAt)
	return insert(s.state.t.cards, "card", card.ID, *card)
}

func (s *Store) UpdateCard(ctx context.Context, card *models.Card) error {
	defer s.guard()()
	s.stamp(nil, &card.UpdatedAt)
	return update(s.state.t.cards, "card", card.ID, *card)
}

func (s *Store) ListCards(ctx context.Context, userID string) ([]*models.Card, error) {
	defer s.guard()()
	return list(
		s.state.t.cards,
		func(c *models.Card) bool { return userID == "" || c.UserID.String == userID },
		func(a, b *models.Card) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

func (s *Store) CreateQrCheckin(ctx context.Context, checkin *models.QrCheckin) error {
	defer s.guard()()
	if checkin.ID == "" {
		checkin.ID = uuid.NewString()
	}
	if checkin.CreatedAt.IsZero() {
		checkin.CreatedAt = s.Now()
	}
	return insert(s.state.t.checkins, "qr_checkin", checkin.ID, *checkin)
}

func (s *Store) ListQrCheckins(ctx context.Context, cardID string) ([]*models.QrCheckin, error) {
	defer s.guard()()
	return list(
		s.state.t.checkins,
		func(c *models.QrCheckin) bool { return cardID == "" || c.CardID == cardID },
		func(a, b *models.QrCheckin) bool { return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	), nil
}

func copyMap[T any](src map[string]T) map[string]T {
	dst := make(map[string]T, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}

func get[T any](table map[string]T, entity, id string) (*T, error) {
	record, found := table[id]
	if !found {
		return nil, types.NewNotFoundError(entity, id)
	}

	return &record, nil
}

func insert[T any](table map[string]T, entity, id string, record T) error {
	if _, found := table[id]; found {
		return fmt.Errorf("%s %s: %w", entity, id, store.ErrDuplicate)
	}
	table[id] = record

	return nil
}

func update[T any](table map[string]T, entity, id string, record T) error {
	if _, found := table[id]; !found {
		return types.NewNotFoundError(entity, id)
	}
	table[id] = record

	return nil
}

func list[T any](table map[string]T, keep func(*T) bool, less func(a, b *T) bool) []*T {
	records := make([]*T, 0, len(table))
	for _, v := range table {
		record := v
		if keep == nil || keep(&record) {
			records = append(records, &record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })

	return records
}

func byCreated(a, b time.Time, aID, bID string) bool {
	if a.Equal(b) {
		return aID < bID
	}

	return a.Before(b)
}
