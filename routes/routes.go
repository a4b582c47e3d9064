package routes

import (
	"crypto/rsa"

	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers"
	"github.com/phuanduong/ledger/controllers/admin_controllers"
	"github.com/phuanduong/ledger/controllers/referral_controllers"
	"github.com/phuanduong/ledger/routes/middlewares"
	"github.com/phuanduong/ledger/services/ledger"
)

func SetupRouter(engine *ledger.Engine, publicKey *rsa.PublicKey) *fiber.App {
	app := fiber.New()
	app.Use(middlewares.Metrics)

	user := &controllers.Handler{Engine: engine}
	admin := admin_controllers.NewHandler(engine)
	referral := &referral_controllers.Handler{Engine: engine}

	public := app.Group("/api/v1/public")
	public.Get("/timestamp", controllers.GetTimestamp)
	public.Get("/tiers", user.GetBusinessTiers)

	account := app.Group("/api/v1/users", middlewares.Authenticate(publicKey))
	account.Get("/:id/balance", user.GetBalance)
	account.Get("/:id/shares", user.GetSharesHistory)
	account.Get("/:id/cards", user.GetCards)
	account.Get("/:id/deposits", user.GetDeposits)
	account.Get("/:id/kpis", user.GetStaffKpis)
	account.Get("/:id/transactions", user.GetTransactions)
	account.Get("/:id/withdrawals/validate", user.ValidateWithdrawal)

	a := app.Group("/api/v1/admin", middlewares.Authenticate(publicKey), middlewares.AdminVaildator)

	a.Get("/users", admin.GetUsers)
	a.Post("/users", admin.CreateUser)
	a.Get("/users/:id", admin.GetUser)
	a.Put("/users/:id/role", admin.UpdateUserRole)

	a.Get("/cards", admin.GetCards)
	a.Post("/cards", admin.CreateCard)
	a.Get("/cards/:id", admin.GetCard)
	a.Put("/cards/:id", admin.UpdateCard)
	a.Post("/cards/:id/cancel", admin.CancelCard)
	a.Post("/cards/:id/sessions", admin.AddCardSessions)
	a.Post("/cards/:id/use", admin.UseCardSessions)
	a.Get("/cards/:id/checkins", admin.GetCardCheckins)
	a.Post("/checkins", admin.CreateQrCheckin)

	a.Get("/deposits", admin.GetDeposits)
	a.Post("/deposits", admin.CreateDeposit)
	a.Get("/deposits/:id", admin.GetDeposit)
	a.Post("/deposits/:id/approve", admin.ApproveDeposit)
	a.Post("/deposits/:id/reject", admin.RejectDeposit)

	a.Get("/kpis", admin.GetStaffKpis)
	a.Post("/kpis", admin.RecordStaffKpi)
	a.Get("/kpis/:staff_id/points", admin.GetStaffKpiPoints)
	a.Post("/kpis/process", admin.ProcessKpiShares)

	a.Get("/profit/summary", admin.GetProfitSummary)
	a.Get("/profit/sharings", admin.GetProfitSharings)
	a.Post("/profit/sharings", admin.ProcessProfitSharing)
	a.Get("/profit/sharings/:id", admin.GetProfitSharing)
	a.Post("/profit/sharings/:id/pay", admin.PayAllDistributions)
	a.Post("/profit/distributions/:id/pay", admin.PayDistribution)
	a.Post("/quarters/process", admin.ProcessQuarter)

	a.Post("/transactions", admin.CreateTransaction)
	a.Get("/cash-flow", admin.GetCashFlowTransactions)
	a.Post("/cash-flow", admin.CreateCashFlowTransaction)
	a.Get("/cash-flow/pending", admin.GetPendingTransactions)
	a.Get("/cash-flow/:id", admin.GetTransaction)
	a.Post("/cash-flow/:id/approve", admin.ApproveTransaction)
	a.Post("/cash-flow/:id/reject", admin.RejectTransaction)
	a.Post("/withdrawals", admin.CreateWithdrawal)
	a.Get("/withdrawals/tax", admin.GetWithdrawalTax)

	a.Get("/settings", admin.GetSettings)
	a.Put("/settings/:key", admin.UpdateSetting)
	a.Put("/tiers/:name", admin.UpdateTier)
	a.Get("/audit-logs", admin.GetAuditLogs)

	a.Get("/dashboard/metrics", admin.GetDashboardMetrics)
	a.Get("/dashboard/business-overview", admin.GetBusinessOverview)
	a.Get("/reports/export", admin.ExportReport)

	a.Get("/referrals", referral.GetReferrals)
	a.Post("/referrals", referral.CreateReferral)
	a.Get("/referrals/code/:staff_id", referral.GenerateReferralCode)
	a.Get("/referrals/:code", referral.GetReferralByCode)
	a.Post("/referrals/:code/first-transaction", referral.ProcessFirstTransaction)
	a.Get("/referrals/:id/commission", referral.GetCommission)
	a.Post("/referrals/:id/pay", referral.PayCommission)
	a.Post("/referrers/:referrer_id/pay", referral.PayAllCommissions)

	return app
}
