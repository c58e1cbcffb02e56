package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hostelmate/hostelmatego/internal/config"
	"github.com/hostelmate/hostelmatego/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "mirror.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	err = db.AutoMigrate(
		&models.Floor{}, &models.Room{}, &models.Bed{},
		&models.Tenant{}, &models.Booking{}, &models.Invoice{}, &models.Expense{},
		&models.MutationEntry{}, &models.DeadLetter{}, &models.AppMeta{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test store: %v", err)
	}
	return db
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Floors:  []models.Floor{{ID: 1, Name: "Ground"}},
		Rooms:   []models.Room{{ID: 2, FloorID: 1, RoomNumber: "101"}},
		Beds:    []models.Bed{{ID: 7, RoomID: 2, Label: "A", Status: models.BedAvailable}},
		Tenants: []models.Tenant{{ID: 10, Name: "Ram", Status: models.TenantActive}},
		Invoices: []models.Invoice{
			{ID: 50, TenantID: 10, Period: "2081-04", Amount: 8000, Status: models.InvoicePending},
		},
		SyncedAt: "2026-08-29T10:00:00Z",
	}
}

func TestReplaceAllStampsSynced(t *testing.T) {
	db := newTestDB(t)

	if err := db.ReplaceAll(testSnapshot()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	var tenant models.Tenant
	if err := db.First(&tenant, "id = ?", 10).Error; err != nil {
		t.Fatalf("tenant missing: %v", err)
	}
	if !tenant.Synced || tenant.PendingOp != models.PendingNone {
		t.Errorf("tenant flags = synced:%v op:%q, want synced clean", tenant.Synced, tenant.PendingOp)
	}
}

func TestReplaceAllIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.ReplaceAll(testSnapshot()); err != nil {
		t.Fatalf("first ReplaceAll failed: %v", err)
	}
	if err := db.ReplaceAll(testSnapshot()); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	var tenants, invoices int64
	db.Model(&models.Tenant{}).Count(&tenants)
	db.Model(&models.Invoice{}).Count(&invoices)
	if tenants != 1 || invoices != 1 {
		t.Errorf("counts = %d tenants %d invoices, want 1 each", tenants, invoices)
	}
}

func TestReplaceAllDropsLocalOnlyRows(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&models.Tenant{ID: 99, Name: "Stale"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := db.ReplaceAll(testSnapshot()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	err := db.First(&models.Tenant{}, "id = ?", 99).Error
	if err != gorm.ErrRecordNotFound {
		t.Errorf("stale row survived the pull: %v", err)
	}
}

func TestReplaceAllRefusesNonEmptyQueue(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.Tenant{ID: -1, Name: "Queued", PendingOp: models.PendingCreate})
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, models.TableTenants, models.PendingCreate, map[string]interface{}{"tempId": -1})
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	err = db.ReplaceAll(testSnapshot())
	if !errors.Is(err, ErrQueueNotEmpty) {
		t.Fatalf("ReplaceAll over a non-empty queue = %v, want ErrQueueNotEmpty", err)
	}

	var tenant models.Tenant
	if err := db.First(&tenant, "id = ?", -1).Error; err != nil {
		t.Errorf("queued local row was lost: %v", err)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	db := newTestDB(t)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := Enqueue(tx, models.TableTenants, models.PendingCreate, map[string]interface{}{"tempId": -1}); err != nil {
			return err
		}
		if err := Enqueue(tx, models.TableBookings, models.PendingCreate, map[string]interface{}{"tempId": -2}); err != nil {
			return err
		}
		return Enqueue(tx, models.TableInvoices, models.PendingUpdate, map[string]interface{}{"id": 50})
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	entries, err := db.PendingMutations()
	if err != nil {
		t.Fatalf("PendingMutations failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("queue length = %d, want 3", len(entries))
	}
	want := []models.Table{models.TableTenants, models.TableBookings, models.TableInvoices}
	for i, entry := range entries {
		if entry.Table != want[i] {
			t.Errorf("entry %d table = %s, want %s", i, entry.Table, want[i])
		}
	}
}

func TestEnqueueRejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, models.Table("ledgers"), models.PendingCreate, nil)
	})
	if err == nil {
		t.Fatal("Enqueue accepted an unmirrored table")
	}
}

func TestCompleteMutationDequeues(t *testing.T) {
	db := newTestDB(t)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, models.TableTenants, models.PendingCreate, map[string]interface{}{"tempId": -1})
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	entries, _ := db.PendingMutations()
	if err := db.CompleteMutation(entries[0].ID); err != nil {
		t.Fatalf("CompleteMutation failed: %v", err)
	}

	count, _ := db.PendingCount()
	if count != 0 {
		t.Errorf("pending = %d, want 0", count)
	}
}

func TestFailMutationDeadLettersAtCap(t *testing.T) {
	db := newTestDB(t)
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return Enqueue(tx, models.TableTenants, models.PendingCreate, map[string]interface{}{"tempId": -1})
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	entries, _ := db.PendingMutations()
	entry := &entries[0]

	dead, err := db.FailMutation(entry, "HTTP 500", 2)
	if err != nil || dead {
		t.Fatalf("first failure = dead:%v err:%v, want retained", dead, err)
	}

	entries, _ = db.PendingMutations()
	entry = &entries[0]
	if entry.RetryCount != 1 || entry.LastError != "HTTP 500" {
		t.Errorf("entry = retries:%d err:%q", entry.RetryCount, entry.LastError)
	}

	dead, err = db.FailMutation(entry, "HTTP 500 again", 2)
	if err != nil {
		t.Fatalf("second failure errored: %v", err)
	}
	if !dead {
		t.Fatal("entry not dead-lettered at retry cap")
	}

	pending, _ := db.PendingCount()
	letters, _ := db.DeadLetterCount()
	if pending != 0 || letters != 1 {
		t.Errorf("pending=%d dead=%d, want 0 and 1", pending, letters)
	}

	var letter models.DeadLetter
	if err := db.First(&letter).Error; err != nil {
		t.Fatalf("dead letter missing: %v", err)
	}
	if letter.LastError != "HTTP 500 again" || letter.Table != models.TableTenants {
		t.Errorf("dead letter = %+v", letter)
	}
	if time.Since(letter.FailedAt) > time.Minute {
		t.Errorf("failed_at not stamped: %v", letter.FailedAt)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := newTestDB(t)

	v, err := db.MetaGet(models.MetaLastSync)
	if err != nil || v != "" {
		t.Fatalf("missing key = %q (%v), want empty", v, err)
	}

	if err := db.MetaPut(models.MetaLastSync, "2026-08-29T10:00:00Z"); err != nil {
		t.Fatalf("MetaPut failed: %v", err)
	}
	if err := db.MetaPut(models.MetaLastSync, "2026-08-29T11:00:00Z"); err != nil {
		t.Fatalf("MetaPut overwrite failed: %v", err)
	}

	v, err = db.MetaGet(models.MetaLastSync)
	if err != nil || v != "2026-08-29T11:00:00Z" {
		t.Errorf("MetaGet = %q (%v)", v, err)
	}
}

func TestMinMirrorID(t *testing.T) {
	db := newTestDB(t)

	min, err := db.MinMirrorID()
	if err != nil || min != 0 {
		t.Fatalf("empty mirror min = %d (%v), want 0", min, err)
	}

	db.Create(&models.Tenant{ID: 5, Name: "A"})
	db.Create(&models.Booking{ID: -3, TenantID: 5})

	min, err = db.MinMirrorID()
	if err != nil || min != -3 {
		t.Errorf("min = %d (%v), want -3", min, err)
	}
}
