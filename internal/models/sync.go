package models

import (
	"time"

	"gorm.io/datatypes"
)

// Pending operation markers stored on mirrored rows. Empty string means
// no outstanding local mutation.
const (
	PendingNone   = ""
	PendingCreate = "create"
	PendingUpdate = "update"
	PendingDelete = "delete"
)

// MutationEntry is one queued local write awaiting transmission to the
// server. The queue is append-only except for deletion-on-success and
// drained strictly in enqueue order.
type MutationEntry struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	Table      Table          `gorm:"column:target_table;type:varchar(20);not null" json:"table"`
	Operation  string         `gorm:"type:varchar(10);not null" json:"operation"` // create, update, delete
	Payload    datatypes.JSON `json:"payload"`
	EnqueuedAt time.Time      `gorm:"index;not null" json:"enqueued_at"`
	RetryCount int            `gorm:"default:0" json:"retry_count"`
	LastError  string         `gorm:"type:text" json:"last_error,omitempty"`
}

func (MutationEntry) TableName() string { return "mutation_queue" }

// DeadLetter holds a mutation that exhausted its retry budget. Kept so
// the user can see what was not delivered instead of retrying forever.
type DeadLetter struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	Table      Table          `gorm:"column:target_table;type:varchar(20);not null" json:"table"`
	Operation  string         `gorm:"type:varchar(10);not null" json:"operation"`
	Payload    datatypes.JSON `json:"payload"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	RetryCount int            `json:"retry_count"`
	FailedAt   time.Time      `json:"failed_at"`
	LastError  string         `gorm:"type:text" json:"last_error"`
}

func (DeadLetter) TableName() string { return "dead_letters" }

// AppMeta is the key-value metadata table. The lastSync singleton and
// the server-issued current BS period live here.
type AppMeta struct {
	Key   string `gorm:"primaryKey;type:varchar(50)" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (AppMeta) TableName() string { return "app_meta" }

// Meta keys
const (
	MetaLastSync      = "lastSync"
	MetaCurrentPeriod = "currentPeriod"
)

// Snapshot is the consolidated payload returned by the server's full
// sync endpoint. Every nested row is flat; cross-references are plain
// foreign-key id fields.
type Snapshot struct {
	Floors   []Floor   `json:"floors"`
	Rooms    []Room    `json:"rooms"`
	Beds     []Bed     `json:"beds"`
	Tenants  []Tenant  `json:"tenants"`
	Bookings []Booking `json:"bookings"`
	Invoices []Invoice `json:"invoices"`
	Expenses []Expense `json:"expenses"`
	Period   string    `json:"period,omitempty"` // current BS year-month, server-issued
	SyncedAt string    `json:"syncedAt"`
}
