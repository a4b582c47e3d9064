package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/services/profit"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

// maxoutWarnPercent is where a holder's payout starts to raise an alert.
var maxoutWarnPercent = decimal.NewFromInt(90)

type Metrics struct {
	TotalRevenue        int64 `json:"total_revenue"`
	TotalExpenses       int64 `json:"total_expenses"`
	ActiveCards         int   `json:"active_cards"`
	Shareholders        int   `json:"shareholders"`
	TotalShares         int64 `json:"total_shares"`
	Staff               int   `json:"staff"`
	PendingDeposits     int   `json:"pending_deposits"`
	PendingTransactions int   `json:"pending_transactions"`
}

// CardMaxout compares, per card type, what holders were paid against the
// card-price cap their cards back.
type CardMaxout struct {
	Type       string          `json:"type"`
	Current    int64           `json:"current"`
	Max        int64           `json:"max"`
	Percentage decimal.Decimal `json:"percentage"`
}

type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type Overview struct {
	Quarters         []profit.Summary `json:"quarters"`
	CardMaxoutStatus []CardMaxout     `json:"card_maxout_status"`
	Alerts           []Alert          `json:"alerts"`
}

func (s *Service) DashboardMetrics(ctx context.Context) (Metrics, error) {
	var metrics Metrics

	approved, err := s.store.ListTransactions(ctx, store.TransactionFilter{Status: types.TransactionApproved})
	if err != nil {
		return metrics, err
	}
	for _, t := range approved {
		switch t.Type {
		case types.TransactionIncome:
			metrics.TotalRevenue += t.Amount
		case types.TransactionExpense:
			metrics.TotalExpenses += t.Amount
		}
	}

	pending, err := s.store.ListTransactions(ctx, store.TransactionFilter{Status: types.TransactionPending})
	if err != nil {
		return metrics, err
	}
	metrics.PendingTransactions = len(pending)

	deposits, err := s.store.ListDepositRequests(ctx, "")
	if err != nil {
		return metrics, err
	}
	for _, d := range deposits {
		if d.Status == types.DepositPending {
			metrics.PendingDeposits++
		}
	}

	cards, err := s.store.ListCards(ctx, "")
	if err != nil {
		return metrics, err
	}
	for _, c := range cards {
		if c.Status == types.CardActive {
			metrics.ActiveCards++
		}
	}

	holders, err := s.store.ListShareholders(ctx)
	if err != nil {
		return metrics, err
	}
	metrics.Shareholders = len(holders)
	for _, b := range holders {
		metrics.TotalShares += b.TotalShares
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return metrics, err
	}
	for _, u := range users {
		if u.IsStaff() {
			metrics.Staff++
		}
	}

	return metrics, nil
}

// BusinessOverview covers the four quarters ending with the one holding now.
func (s *Service) BusinessOverview(ctx context.Context, snap settings.Snapshot, now time.Time) (Overview, error) {
	overview := Overview{Quarters: make([]profit.Summary, 0, 4), CardMaxoutStatus: []CardMaxout{}, Alerts: []Alert{}}

	start, _, err := types.QuarterOf(now).Bounds()
	if err != nil {
		return overview, err
	}
	for i := 3; i >= 0; i-- {
		summary, err := s.profit.CalculateQuarterlyProfit(ctx, types.QuarterOf(start.AddDate(0, -3*i, 0)))
		if err != nil {
			return overview, err
		}
		overview.Quarters = append(overview.Quarters, summary)
	}

	overview.CardMaxoutStatus, err = s.cardMaxout(ctx, snap)
	if err != nil {
		return overview, err
	}

	overview.Alerts, err = s.alerts(ctx, snap)
	if err != nil {
		return overview, err
	}

	return overview, nil
}

func (s *Service) cardMaxout(ctx context.Context, snap settings.Snapshot) ([]CardMaxout, error) {
	cards, err := s.store.ListCards(ctx, "")
	if err != nil {
		return nil, err
	}

	byType := map[string]*CardMaxout{}
	holders := map[string]*models.User{}
	payouts := map[string]int64{}
	for _, card := range cards {
		if !card.CountsTowardMaxout() {
			continue
		}

		userID := card.UserID.String
		holder, ok := holders[userID]
		if !ok {
			holder, err = s.store.GetUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			balance, err := s.store.GetUserBalance(ctx, userID)
			if err == nil {
				payouts[userID] = balance.TotalPayout
			}
			holders[userID] = holder
		}

		row, ok := byType[card.CardType]
		if !ok {
			row = &CardMaxout{Type: card.CardType}
			byType[card.CardType] = row
		}
		row.Max += concerns.MulDiv(card.Price, snap.MaxoutLimitPercentage, 100)
		// a holder's payout is spread over their cards by price
		row.Current += concerns.MulDiv(payouts[userID], card.Price, holder.CardPrice)
	}

	rows := make([]CardMaxout, 0, len(byType))
	for _, row := range byType {
		row.Percentage = decimal.Zero
		if row.Max > 0 {
			row.Percentage = decimal.NewFromInt(row.Current).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(row.Max)).Round(2)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Type < rows[j].Type })

	return rows, nil
}

func (s *Service) alerts(ctx context.Context, snap settings.Snapshot) ([]Alert, error) {
	alerts := []Alert{}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		status, err := s.maxout.GetMaxoutStatus(ctx, snap, user.ID)
		if err != nil {
			return nil, err
		}
		if status.Unlimited || status.Current == 0 {
			continue
		}

		switch {
		case status.Reached:
			alerts = append(alerts, Alert{
				Type:     "maxout",
				Severity: "critical",
				Message:  fmt.Sprintf("%s reached the payout cap of %d VND", user.Name, status.Limit),
			})
		case decimal.NewFromInt(status.Current).Mul(decimal.NewFromInt(100)).GreaterThanOrEqual(maxoutWarnPercent.Mul(decimal.NewFromInt(status.Limit))):
			alerts = append(alerts, Alert{
				Type:     "maxout",
				Severity: "warning",
				Message:  fmt.Sprintf("%s is at %d of %d VND payout cap", user.Name, status.Current, status.Limit),
			})
		}
	}

	deposits, err := s.store.ListDepositRequests(ctx, "")
	if err != nil {
		return nil, err
	}
	var pending int
	for _, d := range deposits {
		if d.Status == types.DepositPending {
			pending++
		}
	}
	if pending > 0 {
		alerts = append(alerts, Alert{
			Type:     "pending_deposits",
			Severity: "info",
			Message:  fmt.Sprintf("%d deposit requests wait for review", pending),
		})
	}

	return alerts, nil
}
