package sync

import (
	"errors"
	"fmt"

	"github.com/hostelmate/hostelmatego/internal/models"
	"gorm.io/gorm"
)

// RemapIdentity replaces a temporary identity with the server-issued
// one after a create acknowledges: the row is re-inserted under the
// server identity with its sync flags cleared, and every mirror column
// that could reference the temporary identity is rewritten. The switch
// is exhaustive over the mirrored tables; a new table cannot sync
// creates until it gets a case here.
func RemapIdentity(tx *gorm.DB, table models.Table, tempID, serverID int64) error {
	switch table {
	case models.TableFloors:
		if err := reinsertRow(tx, &models.Floor{}, tempID, func(row *models.Floor) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		}); err != nil {
			return err
		}
		return tx.Model(&models.Room{}).Where("floor_id = ?", tempID).
			Update("floor_id", serverID).Error

	case models.TableRooms:
		if err := reinsertRow(tx, &models.Room{}, tempID, func(row *models.Room) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		}); err != nil {
			return err
		}
		return tx.Model(&models.Bed{}).Where("room_id = ?", tempID).
			Update("room_id", serverID).Error

	case models.TableBeds:
		if err := reinsertRow(tx, &models.Bed{}, tempID, func(row *models.Bed) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		}); err != nil {
			return err
		}
		return tx.Model(&models.Booking{}).Where("bed_id = ?", tempID).
			Update("bed_id", serverID).Error

	case models.TableTenants:
		if err := reinsertRow(tx, &models.Tenant{}, tempID, func(row *models.Tenant) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		}); err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("tenant_id = ?", tempID).
			Update("tenant_id", serverID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Invoice{}).Where("tenant_id = ?", tempID).
			Update("tenant_id", serverID).Error

	case models.TableBookings:
		if err := reinsertRow(tx, &models.Booking{}, tempID, func(row *models.Booking) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		}); err != nil {
			return err
		}
		return tx.Model(&models.Invoice{}).Where("booking_id = ?", tempID).
			Update("booking_id", serverID).Error

	case models.TableInvoices:
		return reinsertRow(tx, &models.Invoice{}, tempID, func(row *models.Invoice) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		})

	case models.TableExpenses:
		return reinsertRow(tx, &models.Expense{}, tempID, func(row *models.Expense) {
			row.ID = serverID
			row.Synced = true
			row.PendingOp = models.PendingNone
		})
	}

	return fmt.Errorf("no identity remap for table %s", table)
}

// reinsertRow deletes the row stored under the temporary identity and
// re-creates it after stamp mutates it to the server identity. A
// missing row is not an error: the mutation outlived the mirror row.
func reinsertRow[T any](tx *gorm.DB, model *T, tempID int64, stamp func(*T)) error {
	err := tx.First(model, "id = ?", tempID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.Delete(new(T), tempID).Error; err != nil {
		return err
	}

	stamp(model)
	return tx.Create(model).Error
}
