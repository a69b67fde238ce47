package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Listing limits for filtered order scans
const (
	DefaultOrderLimit = 100
	MaxOrderLimit     = 1000
)

// predicate is one bound condition. clause is always one of the constant
// strings below; values only ever travel as bind arguments.
type predicate struct {
	clause string
	arg    interface{}
}

const (
	clauseDateFrom   = "order_date >= ?"
	clauseDateTo     = "order_date <= ?"
	clauseRegion     = "region = ?"
	clauseItemSKU    = "item_sku = ?"
	clausePostalCode = "postal_code = ?"
	clauseMinTotal   = "order_total >= ?"
	clauseMaxTotal   = "order_total <= ?"
)

// OrderQuery accumulates typed filters over the orders table
type OrderQuery struct {
	predicates []predicate
	limit      int
	offset     int
}

// NewOrderQuery starts an unfiltered, unpaginated query
func NewOrderQuery() *OrderQuery {
	return &OrderQuery{}
}

func (q *OrderQuery) add(clause string, arg interface{}) *OrderQuery {
	q.predicates = append(q.predicates, predicate{clause: clause, arg: arg})
	return q
}

// Between restricts to an inclusive order_date window. Bounds bind in UTC
// to match how order_date is stored.
func (q *OrderQuery) Between(start, end time.Time) *OrderQuery {
	return q.From(start).Until(end)
}

// From restricts to orders on or after t
func (q *OrderQuery) From(t time.Time) *OrderQuery {
	return q.add(clauseDateFrom, t.UTC())
}

// Until restricts to orders on or before t
func (q *OrderQuery) Until(t time.Time) *OrderQuery {
	return q.add(clauseDateTo, t.UTC())
}

// Region filters by region code; empty is ignored
func (q *OrderQuery) Region(region string) *OrderQuery {
	if region == "" {
		return q
	}
	return q.add(clauseRegion, region)
}

// ItemSKU filters by product; empty is ignored
func (q *OrderQuery) ItemSKU(sku string) *OrderQuery {
	if sku == "" {
		return q
	}
	return q.add(clauseItemSKU, sku)
}

// PostalCode filters by postal code; empty is ignored
func (q *OrderQuery) PostalCode(code string) *OrderQuery {
	if code == "" {
		return q
	}
	return q.add(clausePostalCode, code)
}

// MinTotal keeps orders whose total is at least min
func (q *OrderQuery) MinTotal(min decimal.Decimal) *OrderQuery {
	return q.add(clauseMinTotal, min)
}

// MaxTotal keeps orders whose total is at most max
func (q *OrderQuery) MaxTotal(max decimal.Decimal) *OrderQuery {
	return q.add(clauseMaxTotal, max)
}

// Page sets limit and offset. limit is clamped to MaxOrderLimit and a
// non-positive limit falls back to DefaultOrderLimit.
func (q *OrderQuery) Page(limit, offset int) *OrderQuery {
	switch {
	case limit <= 0:
		limit = DefaultOrderLimit
	case limit > MaxOrderLimit:
		limit = MaxOrderLimit
	}
	if offset < 0 {
		offset = 0
	}
	q.limit, q.offset = limit, offset
	return q
}

// Clauses returns the accumulated conditions and their arguments in bind order
func (q *OrderQuery) Clauses() ([]string, []interface{}) {
	clauses := make([]string, len(q.predicates))
	args := make([]interface{}, len(q.predicates))
	for i, p := range q.predicates {
		clauses[i] = p.clause
		args[i] = p.arg
	}
	return clauses, args
}

// filter applies the predicates only, for counts
func (q *OrderQuery) filter(db *gorm.DB) *gorm.DB {
	for _, p := range q.predicates {
		db = db.Where(p.clause, p.arg)
	}
	return db
}

// apply adds ordering and pagination on top of the predicates
func (q *OrderQuery) apply(db *gorm.DB) *gorm.DB {
	db = q.filter(db).Order("order_date DESC").Order("order_id")
	if q.limit > 0 {
		db = db.Limit(q.limit).Offset(q.offset)
	}
	return db
}
