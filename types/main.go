package types

type TierName = string

const (
	TierFounder   TierName = "founder"
	TierAngel     TierName = "angel"
	TierBranch    TierName = "branch"
	TierCustomer  TierName = "customer"
	TierStaff     TierName = "staff"
	TierAffiliate TierName = "affiliate"
)

// TierOrder is the canonical tier order. Among tiers that share an investment
// threshold the earlier one wins.
var TierOrder = []TierName{TierFounder, TierAngel, TierBranch, TierCustomer, TierStaff, TierAffiliate}

func IsTier(name string) bool {
	for _, t := range TierOrder {
		if t == name {
			return true
		}
	}

	return false
}

type ShareChangeType = string

const (
	ChangeDeposit    ShareChangeType = "deposit"
	ChangeKpiAward   ShareChangeType = "kpi-award"
	ChangeAdjustment ShareChangeType = "adjustment"
)

type TransactionType = string

const (
	TransactionIncome     TransactionType = "income"
	TransactionExpense    TransactionType = "expense"
	TransactionWithdrawal TransactionType = "withdrawal"
)

func IsTransactionType(t string) bool {
	return t == TransactionIncome || t == TransactionExpense || t == TransactionWithdrawal
}

// SharePrice is the investment amount, in VND, that backs one share.
const SharePrice int64 = 1_000_000

// WithdrawalTaxThreshold is the largest withdrawal that is not taxed.
const WithdrawalTaxThreshold int64 = 10_000_000

// KpiPointsPerCardSale is the point weight of a single card sale.
const KpiPointsPerCardSale int64 = 5

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

func IsRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RoleSuperAdmin
}
