package models

// Booking links a tenant to a bed for a period of time
type Booking struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID    int64   `gorm:"index" json:"tenant_id"`
	BedID       int64   `gorm:"index" json:"bed_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date,omitempty"`
	AgreedRent  float64 `json:"agreed_rent"`
	AdvancePaid float64 `json:"advance_paid"`
	IsActive    bool    `gorm:"index" json:"is_active"`

	Bed *Bed `gorm:"-" json:"bed,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Booking) TableName() string { return "bookings" }
