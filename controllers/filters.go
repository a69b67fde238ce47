package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/services"
	"github.com/kendall-kelly/order-analytics-api/utils"
	"github.com/shopspring/decimal"
)

var errStartAfterEnd = errors.New("start_date must not be after end_date")

// parseDateParam parses a start/end query value. A date-only end bound is
// widened to the end of that day so the window stays inclusive.
func parseDateParam(c *gin.Context, name string, isEnd bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}

	t, dateOnly, err := utils.ParseDateBoundary(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD) or timestamp", name)
	}
	if isEnd && dateOnly {
		t = utils.EndOfDay(t)
	}
	return &t, nil
}

func parseDecimalParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &d, nil
}

func parseIntParam(c *gin.Context, name string, defaultValue, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", name, min, max)
	}
	return v, nil
}

// parseOrderFilters builds an OrderQuery from the listing and export
// query parameters. Pagination is left to the caller.
func parseOrderFilters(c *gin.Context) (*services.OrderQuery, error) {
	q := services.NewOrderQuery()

	start, err := parseDateParam(c, "start_date", false)
	if err != nil {
		return nil, err
	}
	end, err := parseDateParam(c, "end_date", true)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, errStartAfterEnd
	}
	if start != nil {
		q.From(*start)
	}
	if end != nil {
		q.Until(*end)
	}

	q.Region(strings.TrimSpace(c.Query("region"))).
		ItemSKU(strings.TrimSpace(c.Query("item_sku"))).
		PostalCode(strings.TrimSpace(c.Query("postal_code")))

	minTotal, err := parseDecimalParam(c, "min_total")
	if err != nil {
		return nil, err
	}
	maxTotal, err := parseDecimalParam(c, "max_total")
	if err != nil {
		return nil, err
	}
	if minTotal != nil {
		q.MinTotal(*minTotal)
	}
	if maxTotal != nil {
		q.MaxTotal(*maxTotal)
	}

	return q, nil
}
