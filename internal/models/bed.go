package models

// BedStatus represents the occupancy state of a bed
type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedMaintenance BedStatus = "maintenance"
	BedReserved    BedStatus = "reserved"
)

// Bed represents a single bed inside a room
type Bed struct {
	ID     int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RoomID int64     `gorm:"index" json:"room_id"`
	Label  string    `json:"label"`
	Status BedStatus `gorm:"type:varchar(20);index" json:"status"`

	CurrentTenant *Tenant `gorm:"-" json:"current_tenant,omitempty"`
	Room          *Room   `gorm:"-" json:"room,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Bed) TableName() string { return "beds" }
