package admin_controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/controllers/queries"
	"github.com/phuanduong/ledger/services/reports"
)

const dateLayout = "2006-01-02"

// ExportReport streams a report as CSV, or JSON records with format=json.
// date_to is inclusive.
func (h *Handler) ExportReport(c *fiber.Ctx) error {
	payload := new(queries.ExportQuery)
	if ok, err := parseQuery(c, payload); !ok {
		return err
	}

	var from, to time.Time
	if payload.DateFrom != "" {
		from, _ = time.Parse(dateLayout, payload.DateFrom)
	}
	if payload.DateTo != "" {
		to, _ = time.Parse(dateLayout, payload.DateTo)
		to = to.AddDate(0, 0, 1)
	}

	report, err := h.Engine.Reports.Export(c.UserContext(), payload.ReportType, from, to)
	if err != nil {
		return helpers.Fail(c, err)
	}

	if payload.Format == "json" {
		return c.Status(200).JSON(report.Records())
	}

	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, report); err != nil {
		return helpers.Fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_%s.csv"`, report.Kind, time.Now().UTC().Format("20060102")))
	return c.Status(200).Send(buf.Bytes())
}

func (h *Handler) GetDashboardMetrics(c *fiber.Ctx) error {
	metrics, err := h.Engine.Reports.DashboardMetrics(c.UserContext())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(metrics)
}

func (h *Handler) GetBusinessOverview(c *fiber.Ctx) error {
	overview, err := h.Engine.BusinessOverview(c.UserContext(), time.Now())
	if err != nil {
		return helpers.Fail(c, err)
	}

	return c.Status(200).JSON(overview)
}
