package repository

import (
	"sort"
	"strings"
	"time"

	"villageOrderTracking/models"
)

// Summary powers the dashboard view.
type Summary struct {
	TodaysOrders      int     `json:"todaysOrders"`
	PendingDeliveries int     `json:"pendingDeliveries"`
	Delivered         int     `json:"delivered"`
	TotalRevenue      float64 `json:"totalRevenue"`
}

// Summary computes the dashboard numbers relative to now: orders placed
// today, pending and delivered counts, and total revenue over all orders.
func (r *OrderRepository) Summary(now time.Time) Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Summary
	today := now.Format("2006-01-02")
	for i := range r.orders {
		o := &r.orders[i]
		if o.OrderDate.In(now.Location()).Format("2006-01-02") == today {
			s.TodaysOrders++
		}
		switch o.DeliveryStatus {
		case models.DeliveryStatusPending:
			s.PendingDeliveries++
		case models.DeliveryStatusDelivered:
			s.Delivered++
		}
		s.TotalRevenue += o.Total()
	}
	return s
}

// Filter returns orders whose customer, village or product name contains
// search (case-insensitive) and whose status matches, sorted by order date
// descending. Empty search matches everything; empty status matches both.
func (r *OrderRepository) Filter(search string, status models.DeliveryStatus) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Order, 0, len(r.orders))
	for i := range r.orders {
		o := r.orders[i]
		if status != "" && o.DeliveryStatus != status {
			continue
		}
		if needle != "" && !matchesSearch(&o, needle) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out
}

func matchesSearch(o *models.Order, needle string) bool {
	return strings.Contains(strings.ToLower(o.CustomerName), needle) ||
		strings.Contains(strings.ToLower(o.VillageName), needle) ||
		strings.Contains(strings.ToLower(o.ProductName), needle)
}

// DeliveryQueue is the delivery-run view: pending orders sorted by expected
// delivery date ascending, split into overdue and upcoming.
type DeliveryQueue struct {
	Overdue  []models.Order `json:"overdue"`
	Upcoming []models.Order `json:"upcoming"`
}

// DeliveryQueue builds the queue relative to now. An order is overdue when
// its expected delivery date falls before the start of today.
func (r *OrderRepository) DeliveryQueue(now time.Time) DeliveryQueue {
	r.mu.RLock()
	pending := make([]models.Order, 0, len(r.orders))
	for i := range r.orders {
		if r.orders[i].DeliveryStatus == models.DeliveryStatusPending {
			pending = append(pending, r.orders[i])
		}
	}
	r.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ExpectedDeliveryDate.Before(pending[j].ExpectedDeliveryDate)
	})

	y, m, d := now.Date()
	startOfToday := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	q := DeliveryQueue{Overdue: []models.Order{}, Upcoming: []models.Order{}}
	for _, o := range pending {
		if o.ExpectedDeliveryDate.Before(startOfToday) {
			q.Overdue = append(q.Overdue, o)
		} else {
			q.Upcoming = append(q.Upcoming, o)
		}
	}
	return q
}

// Villages returns the sorted distinct village names across all orders,
// feeding the village switcher.
func (r *OrderRepository) Villages() []string {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.orders))
	for i := range r.orders {
		seen[r.orders[i].VillageName] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
