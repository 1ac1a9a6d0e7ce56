package domain

// Stats are the summary figures derived from a ledger snapshot. All
// amounts are cents.
type Stats struct {
	TotalRevenue        int64 `json:"total_revenue"`
	PendingAmount       int64 `json:"pending_amount"`
	OverdueAmount       int64 `json:"overdue_amount"`
	ActiveSubscriptions int   `json:"active_subscriptions"`
}

// ComputeStats derives the summary figures from the current snapshot.
// Pure: no side effects, no I/O.
func ComputeStats(invoices []Invoice, payments []Payment, subscriptions []Subscription) Stats {
	var stats Stats
	for _, payment := range payments {
		if payment.Status == PaymentStatusCompleted {
			stats.TotalRevenue += payment.Amount
		}
	}
	for _, invoice := range invoices {
		switch invoice.Status {
		case InvoiceStatusSent:
			stats.PendingAmount += invoice.Amount
		case InvoiceStatusOverdue:
			stats.OverdueAmount += invoice.Amount
		}
	}
	for _, subscription := range subscriptions {
		if subscription.Status == SubscriptionStatusActive {
			stats.ActiveSubscriptions++
		}
	}
	return stats
}
