package offline

import (
	"math"

	"github.com/hostelmate/hostelmatego/internal/models"
)

// OccupancySummary reports bed usage.
type OccupancySummary struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Rate     int `json:"rate"`
}

// RevenueSummary reports the current-period due and collected amounts.
type RevenueSummary struct {
	DueThisMonth       float64 `json:"dueThisMonth"`
	CollectedThisMonth float64 `json:"collectedThisMonth"`
	CollectionRate     int     `json:"collectionRate"`
}

// DashboardStats is the offline dashboard aggregate.
type DashboardStats struct {
	Occupancy       OccupancySummary `json:"occupancy"`
	Revenue         RevenueSummary   `json:"revenue"`
	LeavingTenants  int64            `json:"leavingTenants"`
	OverdueInvoices []models.Invoice `json:"overdueInvoices"`
}

const overdueListLimit = 10

// BuildDashboardStats computes the dashboard aggregate from mirror
// rows. period is the current Bikram Sambat "YYYY-MM" key; today is an
// ISO date for the pending-past-due check (ISO dates compare
// lexicographically). Rates round to the nearest integer and are 0 when
// the denominator is 0.
func BuildDashboardStats(beds []models.Bed, invoices []models.Invoice, leavingTenants int64, period, today string) DashboardStats {
	occupied := 0
	for _, b := range beds {
		if b.Status == models.BedOccupied {
			occupied++
		}
	}

	var due, collected float64
	for _, inv := range invoices {
		if inv.Period != period {
			continue
		}
		due += inv.Amount + inv.Fine
		collected += inv.PaidAmount
	}

	var overdue []models.Invoice
	for _, inv := range invoices {
		if len(overdue) >= overdueListLimit {
			break
		}
		if inv.Status == models.InvoiceOverdue ||
			(inv.Status == models.InvoicePending && inv.DueDate != "" && inv.DueDate < today) {
			overdue = append(overdue, inv)
		}
	}

	return DashboardStats{
		Occupancy: OccupancySummary{
			Total:    len(beds),
			Occupied: occupied,
			Rate:     roundRate(float64(occupied), float64(len(beds))),
		},
		Revenue: RevenueSummary{
			DueThisMonth:       due,
			CollectedThisMonth: collected,
			CollectionRate:     roundRate(collected, due),
		},
		LeavingTenants:  leavingTenants,
		OverdueInvoices: overdue,
	}
}

func roundRate(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}
