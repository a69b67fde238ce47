package services

import (
	"math"
	"sort"
	"time"

	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/shopspring/decimal"
)

// DefaultTopProducts is the number of products returned when no limit is given
const DefaultTopProducts = 10

// DefaultWindowDays is the length of the dashboard window when no dates are given
const DefaultWindowDays = 30

// Window is an inclusive order_date range
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowResolution is the granularity dashboards are computed and cached at
const WindowResolution = time.Minute

// Aligned widens w to whole WindowResolution steps, so requests made within
// the same minute share one cached dashboard
func (w Window) Aligned() Window {
	return Window{
		Start: w.Start.Truncate(WindowResolution),
		End:   w.End.Truncate(WindowResolution).Add(WindowResolution - time.Nanosecond),
	}
}

// DefaultWindow covers the last DefaultWindowDays days ending at now
func DefaultWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -DefaultWindowDays), End: now}
}

// DateRange echoes the queried window
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SalesSummary aggregates the whole window
type SalesSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	TotalItemsSold    int             `json:"total_items_sold"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	UniqueCustomers   int             `json:"unique_customers"`
	UniqueRegions     int             `json:"unique_regions"`
	FirstOrder        *time.Time      `json:"first_order"`
	LastOrder         *time.Time      `json:"last_order"`
	DateRange         DateRange       `json:"date_range"`
}

// ProductMetric is one (sku, name) group
type ProductMetric struct {
	ItemSKU           string          `json:"item_sku"`
	ItemName          string          `json:"item_name"`
	QuantitySold      int             `json:"quantity_sold"`
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int             `json:"order_count"`
	PercentageOfTotal float64         `json:"percentage_of_total"`
}

// TimeSeriesPoint is one calendar day with orders
type TimeSeriesPoint struct {
	Date       string          `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"order_count"`
	ItemsSold  int             `json:"items_sold"`
}

// GeographicMetric is one region
type GeographicMetric struct {
	Location          string          `json:"location"`
	LocationType      string          `json:"location_type"`
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int             `json:"order_count"`
	PercentageOfTotal float64         `json:"percentage_of_total"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
}

// DashboardMetrics bundles the four views
type DashboardMetrics struct {
	SalesMetrics           SalesSummary       `json:"sales_metrics"`
	TopProducts            []ProductMetric    `json:"top_products"`
	TimeSeries             []TimeSeriesPoint  `json:"time_series"`
	GeographicDistribution []GeographicMetric `json:"geographic_distribution"`
}

const dayLayout = "2006-01-02"

// totalRevenue sums order totals
func totalRevenue(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.OrderTotal)
	}
	return total
}

// percentageOf treats a zero total as 1, so an empty window yields 0%
func percentageOf(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		total = decimal.NewFromInt(1)
	}
	pct, _ := part.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// SummarizeSales computes the sales summary of orders within window
func SummarizeSales(orders []models.Order, window Window) SalesSummary {
	summary := SalesSummary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		DateRange: DateRange{
			Start: window.Start.Format(dayLayout),
			End:   window.End.Format(dayLayout),
		},
	}

	orderIDs := make(map[string]struct{}, len(orders))
	customers := make(map[string]struct{})
	regions := make(map[string]struct{})

	for i := range orders {
		o := &orders[i]
		summary.TotalRevenue = summary.TotalRevenue.Add(o.OrderTotal)
		summary.TotalItemsSold += o.Quantity
		orderIDs[o.OrderID] = struct{}{}
		customers[o.CustomerName] = struct{}{}
		if o.Region != "" {
			regions[o.Region] = struct{}{}
		}
		if summary.FirstOrder == nil || o.OrderDate.Before(*summary.FirstOrder) {
			first := o.OrderDate
			summary.FirstOrder = &first
		}
		if summary.LastOrder == nil || o.OrderDate.After(*summary.LastOrder) {
			last := o.OrderDate
			summary.LastOrder = &last
		}
	}

	summary.TotalOrders = len(orderIDs)
	summary.UniqueCustomers = len(customers)
	summary.UniqueRegions = len(regions)
	if len(orders) > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}
	return summary
}

// TopProducts groups orders by (sku, name), revenue descending with ties
// broken by sku, and returns at most limit groups
func TopProducts(orders []models.Order, limit int) []ProductMetric {
	if limit <= 0 {
		limit = DefaultTopProducts
	}

	type key struct{ sku, name string }
	groups := make(map[key]*ProductMetric)
	orderIDs := make(map[key]map[string]struct{})

	for i := range orders {
		o := &orders[i]
		k := key{o.ItemSKU, o.ItemName}
		g, ok := groups[k]
		if !ok {
			g = &ProductMetric{ItemSKU: o.ItemSKU, ItemName: o.ItemName, Revenue: decimal.Zero}
			groups[k] = g
			orderIDs[k] = make(map[string]struct{})
		}
		g.QuantitySold += o.Quantity
		g.Revenue = g.Revenue.Add(o.OrderTotal)
		orderIDs[k][o.OrderID] = struct{}{}
	}

	total := totalRevenue(orders)
	products := make([]ProductMetric, 0, len(groups))
	for k, g := range groups {
		g.OrderCount = len(orderIDs[k])
		g.PercentageOfTotal = percentageOf(g.Revenue, total)
		products = append(products, *g)
	}

	sort.Slice(products, func(i, j int) bool {
		if c := products[i].Revenue.Cmp(products[j].Revenue); c != 0 {
			return c > 0
		}
		if products[i].ItemSKU != products[j].ItemSKU {
			return products[i].ItemSKU < products[j].ItemSKU
		}
		return products[i].ItemName < products[j].ItemName
	})

	if len(products) > limit {
		products = products[:limit]
	}
	return products
}

// DailySeries groups orders by calendar day, ascending. Days without
// orders are absent.
func DailySeries(orders []models.Order) []TimeSeriesPoint {
	days := make(map[string]*TimeSeriesPoint)
	orderIDs := make(map[string]map[string]struct{})

	for i := range orders {
		o := &orders[i]
		day := o.Day().Format(dayLayout)
		p, ok := days[day]
		if !ok {
			p = &TimeSeriesPoint{Date: day, Revenue: decimal.Zero}
			days[day] = p
			orderIDs[day] = make(map[string]struct{})
		}
		p.Revenue = p.Revenue.Add(o.OrderTotal)
		p.ItemsSold += o.Quantity
		orderIDs[day][o.OrderID] = struct{}{}
	}

	series := make([]TimeSeriesPoint, 0, len(days))
	for day, p := range days {
		p.OrderCount = len(orderIDs[day])
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// RegionalDistribution groups orders by non-empty region, revenue descending
func RegionalDistribution(orders []models.Order) []GeographicMetric {
	type accumulator struct {
		metric     GeographicMetric
		orderIDs   map[string]struct{}
		latSum     float64
		lngSum     float64
		withCoords int
	}
	groups := make(map[string]*accumulator)

	for i := range orders {
		o := &orders[i]
		if o.Region == "" {
			continue
		}
		acc, ok := groups[o.Region]
		if !ok {
			acc = &accumulator{
				metric:   GeographicMetric{Location: o.Region, LocationType: "region", Revenue: decimal.Zero},
				orderIDs: make(map[string]struct{}),
			}
			groups[o.Region] = acc
		}
		acc.metric.Revenue = acc.metric.Revenue.Add(o.OrderTotal)
		acc.orderIDs[o.OrderID] = struct{}{}
		if o.Latitude != nil && o.Longitude != nil {
			acc.latSum += *o.Latitude
			acc.lngSum += *o.Longitude
			acc.withCoords++
		}
	}

	// Percentages are against the whole window, including rows without a region
	total := totalRevenue(orders)
	regions := make([]GeographicMetric, 0, len(groups))
	for _, acc := range groups {
		m := acc.metric
		m.OrderCount = len(acc.orderIDs)
		m.PercentageOfTotal = percentageOf(m.Revenue, total)
		if acc.withCoords > 0 {
			lat := roundTo(acc.latSum/float64(acc.withCoords), 6)
			lng := roundTo(acc.lngSum/float64(acc.withCoords), 6)
			m.Latitude, m.Longitude = &lat, &lng
		}
		regions = append(regions, m)
	}

	sort.Slice(regions, func(i, j int) bool {
		if c := regions[i].Revenue.Cmp(regions[j].Revenue); c != 0 {
			return c > 0
		}
		return regions[i].Location < regions[j].Location
	})
	return regions
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
