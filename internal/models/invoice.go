package models

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePartial   InvoiceStatus = "partial"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a rent invoice for one Bikram Sambat period.
// Period is an opaque "YYYY-MM" BS key; the node never does calendar
// arithmetic on it.
type Invoice struct {
	ID         int64         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	HostelID   int64         `gorm:"index" json:"hostel_id"`
	TenantID   int64         `gorm:"index" json:"tenant_id"`
	BookingID  int64         `gorm:"index" json:"booking_id"`
	Period     string        `gorm:"type:varchar(10);index" json:"period"`
	Amount     float64       `json:"amount"`
	Fine       float64       `json:"fine"`
	PaidAmount float64       `json:"paid_amount"`
	DueDate    string        `gorm:"index" json:"due_date"`
	PaidAt     string        `json:"paid_at,omitempty"`
	Status     InvoiceStatus `gorm:"type:varchar(20);index" json:"status"`

	Tenant *Tenant `gorm:"-" json:"tenant,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// TabStatuses maps an invoice list tab to the statuses it contains.
// Unknown tabs map to nothing.
func TabStatuses(tab string) []InvoiceStatus {
	switch tab {
	case "due":
		return []InvoiceStatus{InvoicePending, InvoicePartial, InvoiceOverdue}
	case "paid":
		return []InvoiceStatus{InvoicePaid}
	case "draft":
		return []InvoiceStatus{InvoiceDraft}
	}
	return nil
}

// InTab reports whether the invoice's status belongs to the given tab.
func (inv *Invoice) InTab(tab string) bool {
	for _, s := range TabStatuses(tab) {
		if inv.Status == s {
			return true
		}
	}
	return false
}
