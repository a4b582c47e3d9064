package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/phuanduong/ledger/monitoring"
)

// Metrics records request counts and latencies by route pattern.
func Metrics(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	path := c.Route().Path
	status := c.Response().StatusCode()
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	monitoring.HttpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
	monitoring.ResponseTimeHistogram.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

	return err
}
