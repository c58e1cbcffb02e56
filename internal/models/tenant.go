package models

// TenantStatus represents the lifecycle state of a tenant
type TenantStatus string

const (
	TenantActive  TenantStatus = "active"
	TenantLeaving TenantStatus = "leaving"
	TenantLeft    TenantStatus = "left"
)

// Tenant represents a hostel resident
type Tenant struct {
	ID           int64        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	HostelID     int64        `gorm:"index" json:"hostel_id"`
	Name         string       `gorm:"index" json:"name"`
	Phone        string       `json:"phone"`
	ParentPhone  string       `json:"parent_phone"`
	HomeLocation string       `gorm:"index" json:"home_location"`
	IDType       string       `json:"id_type"`
	IDNumber     string       `json:"id_number"`
	PhotoURL     string       `json:"photo_url"`
	Status       TenantStatus `gorm:"type:varchar(20);index" json:"status"`
	CreatedAt    string       `json:"created_at"`

	ActiveBooking *Booking `gorm:"-" json:"active_booking,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Tenant) TableName() string { return "tenants" }
