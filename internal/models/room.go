package models

// Room represents a room on a floor
type Room struct {
	ID         int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FloorID    int64   `gorm:"index" json:"floor_id"`
	RoomNumber string  `json:"room_number"`
	Gender     string  `json:"gender"` // male, female, any
	BasePrice  float64 `json:"base_price"`
	Capacity   int     `json:"capacity"`

	Beds []Bed `gorm:"-" json:"beds,omitempty"`

	Synced    bool   `gorm:"index" json:"synced"`
	PendingOp string `gorm:"type:varchar(10)" json:"pending_op,omitempty"`
}

func (Room) TableName() string { return "rooms" }
