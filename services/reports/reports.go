// Package reports exports ledger data as flat tables and computes the
// dashboard figures.
package reports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/profit"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

const (
	KindTransactions        = "transactions"
	KindDeposits            = "deposits"
	KindProfitDistributions = "profit_distributions"
	KindShareholders        = "shareholders"
	KindCards               = "cards"
)

var Kinds = []string{KindTransactions, KindDeposits, KindProfitDistributions, KindShareholders, KindCards}

func IsKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}

	return false
}

// Report is a table of string cells in column order.
type Report struct {
	Kind    string     `json:"kind"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Records returns one column->cell map per row.
func (r Report) Records() []map[string]string {
	records := make([]map[string]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]string, len(r.Columns))
		for i, column := range r.Columns {
			record[column] = row[i]
		}
		records = append(records, record)
	}

	return records
}

// WriteCSV writes the header line and every row.
func WriteCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(r.Columns); err != nil {
		return err
	}
	if err := writer.WriteAll(r.Rows); err != nil {
		return err
	}

	return writer.Error()
}

type Service struct {
	store  store.Store
	profit *profit.Service
	maxout *maxout.Service
	logger *logrus.Entry
}

func NewService(s store.Store, p *profit.Service, m *maxout.Service, logger *logrus.Entry) *Service {
	return &Service{store: s, profit: p, maxout: m, logger: logger}
}

// Export builds the kind report for rows created in [from, to). A zero bound
// is open. Shareholders are a current snapshot and ignore the range.
func (s *Service) Export(ctx context.Context, kind string, from, to time.Time) (Report, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return Report{}, types.NewValidationError("date_to", "must be after date_from")
	}

	var (
		report Report
		err    error
	)
	switch kind {
	case KindTransactions:
		report, err = s.transactions(ctx, from, to)
	case KindDeposits:
		report, err = s.deposits(ctx, from, to)
	case KindProfitDistributions:
		report, err = s.distributions(ctx, from, to)
	case KindShareholders:
		report, err = s.shareholders(ctx)
	case KindCards:
		report, err = s.cards(ctx, from, to)
	default:
		return Report{}, types.NewValidationError("report_type", "unknown report "+kind)
	}
	if err != nil {
		return Report{}, err
	}
	report.Kind = kind

	s.logger.WithFields(logrus.Fields{
		"report_type": kind,
		"rows":        len(report.Rows),
	}).Info("Report exported")

	return report, nil
}

func within(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}

	return true
}

func (s *Service) transactions(ctx context.Context, from, to time.Time) (Report, error) {
	rows, err := s.store.ListTransactions(ctx, store.TransactionFilter{From: from, To: to})
	if err != nil {
		return Report{}, err
	}

	report := Report{Columns: []string{"id", "user_id", "type", "amount", "tax", "net_amount", "status", "description", "approved_by", "created_at"}}
	for _, t := range rows {
		report.Rows = append(report.Rows, []string{
			t.ID, t.UserID, t.Type, money(t.Amount), money(t.Tax), money(t.NetAmount),
			string(t.Status), t.Description, t.ApprovedBy.String, stamp(t.CreatedAt),
		})
	}

	return report, nil
}

func (s *Service) deposits(ctx context.Context, from, to time.Time) (Report, error) {
	rows, err := s.store.ListDepositRequests(ctx, "")
	if err != nil {
		return Report{}, err
	}

	report := Report{Columns: []string{"id", "user_id", "amount", "business_tier", "status", "approved_by", "approved_at", "created_at"}}
	for _, d := range rows {
		if !within(d.CreatedAt, from, to) {
			continue
		}
		report.Rows = append(report.Rows, []string{
			d.ID, d.UserID, money(d.Amount), d.BusinessTier, string(d.Status),
			d.ApprovedBy.String, nullStamp(d.ApprovedAt), stamp(d.CreatedAt),
		})
	}

	return report, nil
}

func (s *Service) distributions(ctx context.Context, from, to time.Time) (Report, error) {
	sharings, err := s.store.ListProfitSharings(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Columns: []string{"id", "period", "shareholder_id", "share_count", "raw_entitlement", "capped_amount", "paid", "paid_at", "created_at"}}
	for _, sharing := range sharings {
		rows, err := s.store.ListProfitDistributionsBySharing(ctx, sharing.ID)
		if err != nil {
			return Report{}, err
		}

		for _, d := range rows {
			if !within(d.CreatedAt, from, to) {
				continue
			}
			report.Rows = append(report.Rows, []string{
				d.ID, sharing.GetPeriod().String(), d.ShareholderID, strconv.FormatInt(d.ShareCount, 10),
				money(d.RawEntitlement), money(d.CappedAmount), strconv.FormatBool(d.Paid),
				nullStamp(d.PaidAt), stamp(d.CreatedAt),
			})
		}
	}

	return report, nil
}

func (s *Service) shareholders(ctx context.Context) (Report, error) {
	holders, err := s.store.ListShareholders(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Columns: []string{"user_id", "name", "business_tier", "total_shares", "available_balance", "total_payout", "maxout_reached"}}
	for _, b := range holders {
		var name, tier string
		user, err := s.store.GetUser(ctx, b.UserID)
		if err == nil {
			name, tier = user.Name, user.BusinessTier
		}
		report.Rows = append(report.Rows, []string{
			b.UserID, name, tier, strconv.FormatInt(b.TotalShares, 10),
			money(b.AvailableBalance), money(b.TotalPayout), strconv.FormatBool(b.MaxoutReached),
		})
	}

	return report, nil
}

func (s *Service) cards(ctx context.Context, from, to time.Time) (Report, error) {
	rows, err := s.store.ListCards(ctx, "")
	if err != nil {
		return Report{}, err
	}

	report := Report{Columns: []string{"id", "card_number", "card_type", "customer_name", "user_id", "price", "remaining_sessions", "status", "created_at"}}
	for _, c := range rows {
		if !within(c.CreatedAt, from, to) {
			continue
		}
		report.Rows = append(report.Rows, []string{
			c.ID, c.CardNumber, c.CardType, c.CustomerName, c.UserID.String, money(c.Price),
			strconv.FormatInt(c.RemainingSessions, 10), string(c.Status), stamp(c.CreatedAt),
		})
	}

	return report, nil
}

func money(v int64) string {
	return strconv.FormatInt(v, 10)
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullStamp(t null.Time) string {
	if !t.Valid {
		return ""
	}

	return stamp(t.Time)
}
