package models

// Floor represents one floor of a hostel building
type Floor struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	HostelID int64  `gorm:"index" json:"hostel_id"`
	Name     string `json:"name"`
	Position int    `gorm:"column:position" json:"order"`

	Rooms []Room `gorm:"-" json:"rooms,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Floor) TableName() string { return "floors" }
