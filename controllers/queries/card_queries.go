package queries

import (
	"time"

	"github.com/phuanduong/ledger/controllers/helpers"
)

type CreateCardParams struct {
	CardNumber        string `json:"card_number" form:"card_number" validate:"required"`
	CardType          string `json:"card_type" form:"card_type" validate:"required"`
	CustomerName      string `json:"customer_name" form:"customer_name"`
	UserID            string `json:"user_id" form:"user_id"`
	Price             int64  `json:"price" form:"price" validate:"ValidateNonNegative"`
	RemainingSessions int64  `json:"remaining_sessions" form:"remaining_sessions" validate:"ValidateNonNegative"`
}

func (p CreateCardParams) ValidateNonNegative(val int64) bool {
	return val >= 0
}

func (p CreateCardParams) Messages() map[string]string {
	m := helpers.VaildateMessage("ledger.card")
	m["ValidateNonNegative"] = "ledger.card.negative_{field}"
	return m
}

type UpdateCardParams struct {
	CardType     *string `json:"card_type" form:"card_type"`
	CustomerName *string `json:"customer_name" form:"customer_name"`
	Price        *int64  `json:"price" form:"price"`
}

type SessionsParams struct {
	Sessions int64 `json:"sessions" form:"sessions" validate:"required|min:1"`
}

func (p SessionsParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.card")
}

type CreateCheckinParams struct {
	CardID      string `json:"card_id" form:"card_id" validate:"required"`
	SessionType string `json:"session_type" form:"session_type" validate:"required"`
	Notes       string `json:"notes" form:"notes"`
}

func (p CreateCheckinParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.checkin")
}

type UpdateRoleParams struct {
	Role string `json:"role" form:"role" validate:"required|in:user,admin,superadmin"`
}

func (p UpdateRoleParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.user")
}

type ExportQuery struct {
	ReportType string `query:"report_type" validate:"required|in:transactions,deposits,profit_distributions,shareholders,cards"`
	DateFrom   string `query:"date_from" validate:"ValidateDate"`
	DateTo     string `query:"date_to" validate:"ValidateDate"`
	Format     string `query:"format" validate:"in:csv,json"`
}

func (p ExportQuery) ValidateDate(val string) bool {
	_, err := time.Parse("2006-01-02", val)
	return err == nil
}

func (p ExportQuery) Messages() map[string]string {
	m := helpers.VaildateMessage("ledger.report")
	m["ValidateDate"] = "ledger.report.invalid_{field}"
	return m
}
