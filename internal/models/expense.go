package models

// Expense represents an operating expense entry
type Expense struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	HostelID    int64   `gorm:"index" json:"hostel_id"`
	Category    string  `gorm:"index" json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	ExpenseDate string  `gorm:"index" json:"expense_date"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Expense) TableName() string { return "expenses" }
