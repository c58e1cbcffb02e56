package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hostelmate/hostelmatego/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrQueueNotEmpty rejects a destructive replace while local mutations
// are still queued.
var ErrQueueNotEmpty = errors.New("mutation queue not empty")

// ReplaceAll clears every mirrored table and inserts the snapshot rows,
// each stamped synced. Runs in a single transaction: readers never see
// a half-replaced mirror, and any failure leaves it untouched.
//
// Destructive: unsynced local rows would be lost if this ran while
// offline changes were queued. The guard lives inside the transaction
// itself, so a write committing between the engine's precheck and the
// truncate still aborts the replace.
func (db *DB) ReplaceAll(snap *models.Snapshot) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.MutationEntry{}).Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: %d entries", ErrQueueNotEmpty, pending)
		}

		for i := range snap.Floors {
			snap.Floors[i].Synced = true
			snap.Floors[i].PendingOp = models.PendingNone
		}
		for i := range snap.Rooms {
			snap.Rooms[i].Synced = true
			snap.Rooms[i].PendingOp = models.PendingNone
		}
		for i := range snap.Beds {
			snap.Beds[i].Synced = true
			snap.Beds[i].PendingOp = models.PendingNone
		}
		for i := range snap.Tenants {
			snap.Tenants[i].Synced = true
			snap.Tenants[i].PendingOp = models.PendingNone
		}
		for i := range snap.Bookings {
			snap.Bookings[i].Synced = true
			snap.Bookings[i].PendingOp = models.PendingNone
		}
		for i := range snap.Invoices {
			snap.Invoices[i].Synced = true
			snap.Invoices[i].PendingOp = models.PendingNone
		}
		for i := range snap.Expenses {
			snap.Expenses[i].Synced = true
			snap.Expenses[i].PendingOp = models.PendingNone
		}

		if err := clearTable(tx, &models.Floor{}); err != nil {
			return err
		}
		if len(snap.Floors) > 0 {
			if err := tx.Create(&snap.Floors).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Room{}); err != nil {
			return err
		}
		if len(snap.Rooms) > 0 {
			if err := tx.Create(&snap.Rooms).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Bed{}); err != nil {
			return err
		}
		if len(snap.Beds) > 0 {
			if err := tx.Create(&snap.Beds).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Tenant{}); err != nil {
			return err
		}
		if len(snap.Tenants) > 0 {
			if err := tx.Create(&snap.Tenants).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Booking{}); err != nil {
			return err
		}
		if len(snap.Bookings) > 0 {
			if err := tx.Create(&snap.Bookings).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Invoice{}); err != nil {
			return err
		}
		if len(snap.Invoices) > 0 {
			if err := tx.Create(&snap.Invoices).Error; err != nil {
				return err
			}
		}

		if err := clearTable(tx, &models.Expense{}); err != nil {
			return err
		}
		if len(snap.Expenses) > 0 {
			if err := tx.Create(&snap.Expenses).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func clearTable(tx *gorm.DB, model interface{}) error {
	return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
}

// Enqueue appends a mutation entry to the queue inside the caller's
// transaction. Optimistic writes call this in the same transaction as
// the mirror mutation so the write/queue pairing is atomic.
func Enqueue(tx *gorm.DB, table models.Table, operation string, payload map[string]interface{}) error {
	if !table.Valid() {
		return fmt.Errorf("unknown mirrored table: %s", table)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation payload: %w", err)
	}

	entry := models.MutationEntry{
		Table:      table,
		Operation:  operation,
		Payload:    datatypes.JSON(raw),
		EnqueuedAt: time.Now().UTC(),
	}
	return tx.Create(&entry).Error
}

// RewriteQueuedReferences rewrites still-queued payloads that reference
// a temporary identity, in the id and foreign-key fields, after its
// create acknowledged. Without this, an entry that failed transiently
// in the same drain as its dependency's ack would reference a
// temporary identity no later drain can resolve.
func RewriteQueuedReferences(tx *gorm.DB, tempID, serverID int64) error {
	var entries []models.MutationEntry
	if err := tx.Order("id asc").Find(&entries).Error; err != nil {
		return err
	}

	for i := range entries {
		entry := &entries[i]

		var payload map[string]interface{}
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			continue
		}

		changed := false
		keys := append([]string{"id"}, entry.Table.ForeignKeys()...)
		for _, key := range keys {
			if f, ok := payload[key].(float64); ok && int64(f) == tempID {
				payload[key] = serverID
				changed = true
			}
		}
		if !changed {
			continue
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.MutationEntry{}).Where("id = ?", entry.ID).
			Update("payload", datatypes.JSON(raw)).Error; err != nil {
			return err
		}
	}
	return nil
}

// PendingMutations returns the queue in FIFO order by enqueue time.
func (db *DB) PendingMutations() ([]models.MutationEntry, error) {
	var entries []models.MutationEntry
	err := db.DB.Order("enqueued_at asc, id asc").Find(&entries).Error
	return entries, err
}

// PendingCount returns the number of queued mutations.
func (db *DB) PendingCount() (int64, error) {
	var count int64
	err := db.DB.Model(&models.MutationEntry{}).Count(&count).Error
	return count, err
}

// DeadLetterCount returns the number of dead-lettered mutations.
func (db *DB) DeadLetterCount() (int64, error) {
	var count int64
	err := db.DB.Model(&models.DeadLetter{}).Count(&count).Error
	return count, err
}

// CompleteMutation removes an acknowledged entry from the queue.
func (db *DB) CompleteMutation(id int64) error {
	return db.DB.Delete(&models.MutationEntry{}, id).Error
}

// FailMutation records a failed push attempt. The entry is retained
// with an incremented retry count until it reaches maxRetries, at which
// point it moves to the dead-letter table. Returns whether the entry
// was dead-lettered.
func (db *DB) FailMutation(entry *models.MutationEntry, cause string, maxRetries int) (bool, error) {
	entry.RetryCount++
	entry.LastError = cause

	if maxRetries > 0 && entry.RetryCount >= maxRetries {
		err := db.DB.Transaction(func(tx *gorm.DB) error {
			dead := models.DeadLetter{
				Table:      entry.Table,
				Operation:  entry.Operation,
				Payload:    entry.Payload,
				EnqueuedAt: entry.EnqueuedAt,
				RetryCount: entry.RetryCount,
				FailedAt:   time.Now().UTC(),
				LastError:  cause,
			}
			if err := tx.Create(&dead).Error; err != nil {
				return err
			}
			return tx.Delete(&models.MutationEntry{}, entry.ID).Error
		})
		return err == nil, err
	}

	err := db.DB.Model(&models.MutationEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"retry_count": entry.RetryCount,
			"last_error":  cause,
		}).Error
	return false, err
}

// MetaGet reads a metadata value; missing keys return "".
func (db *DB) MetaGet(key string) (string, error) {
	var meta models.AppMeta
	err := db.DB.First(&meta, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.Value, nil
}

// MetaPut writes a metadata value.
func (db *DB) MetaPut(key, value string) error {
	return db.DB.Save(&models.AppMeta{Key: key, Value: value}).Error
}

// MinMirrorID returns the lowest identity present across the mirrored
// tables. Used to seed the temporary-identity allocator below any
// negative id that survived a restart.
func (db *DB) MinMirrorID() (int64, error) {
	min := int64(0)
	for _, table := range models.MirroredTables {
		var rowMin *int64
		if err := db.DB.Table(string(table)).Select("min(id)").Scan(&rowMin).Error; err != nil {
			return 0, err
		}
		if rowMin != nil && *rowMin < min {
			min = *rowMin
		}
	}
	return min, nil
}
