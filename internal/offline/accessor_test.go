package offline

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/hostelmate/hostelmatego/internal/config"
	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/store"
)

func newTestStore(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Connect(config.DatabaseConfig{
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

func newTestAccessor(t *testing.T) (*Accessor, *store.DB) {
	t.Helper()
	db := newTestStore(t)
	accessor, err := NewAccessor(db)
	if err != nil {
		t.Fatalf("Failed to create accessor: %v", err)
	}
	return accessor, db
}

func seedBed(t *testing.T, db *store.DB, bedID int64) {
	t.Helper()
	if err := db.Create(&models.Floor{ID: 1, Name: "Ground", Synced: true}).Error; err != nil {
		t.Fatalf("Failed to seed floor: %v", err)
	}
	if err := db.Create(&models.Room{ID: 2, FloorID: 1, RoomNumber: "101", BasePrice: 8000, Capacity: 2, Synced: true}).Error; err != nil {
		t.Fatalf("Failed to seed room: %v", err)
	}
	if err := db.Create(&models.Bed{ID: bedID, RoomID: 2, Label: "A", Status: models.BedAvailable, Synced: true}).Error; err != nil {
		t.Fatalf("Failed to seed bed: %v", err)
	}
}

func TestCreateTenantWithBedPairsWritesAndQueue(t *testing.T) {
	accessor, db := newTestAccessor(t)
	seedBed(t, db, 7)

	tempID, err := accessor.CreateTenant(models.Tenant{Name: "Ram", Phone: "9800000001"}, 7, 8000, 4000)
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if tempID >= 0 {
		t.Fatalf("tenant id = %d, want negative temporary identity", tempID)
	}

	var tenant models.Tenant
	if err := db.First(&tenant, "id = ?", tempID).Error; err != nil {
		t.Fatalf("tenant row missing: %v", err)
	}
	if tenant.Synced || tenant.PendingOp != models.PendingCreate {
		t.Errorf("tenant flags = synced:%v op:%q, want unsynced create", tenant.Synced, tenant.PendingOp)
	}

	var booking models.Booking
	if err := db.First(&booking, "tenant_id = ?", tempID).Error; err != nil {
		t.Fatalf("booking row missing: %v", err)
	}
	if booking.ID >= 0 || booking.BedID != 7 || !booking.IsActive {
		t.Errorf("booking = id:%d bed:%d active:%v", booking.ID, booking.BedID, booking.IsActive)
	}
	if booking.AgreedRent != 8000 || booking.AdvancePaid != 4000 {
		t.Errorf("booking terms = %v/%v, want 8000/4000", booking.AgreedRent, booking.AdvancePaid)
	}

	var bed models.Bed
	if err := db.First(&bed, "id = ?", 7).Error; err != nil {
		t.Fatalf("bed row missing: %v", err)
	}
	if bed.Status != models.BedOccupied {
		t.Errorf("bed status = %s, want occupied", bed.Status)
	}

	entries, err := db.PendingMutations()
	if err != nil {
		t.Fatalf("PendingMutations failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("queue length = %d, want 2", len(entries))
	}
	if entries[0].Table != models.TableTenants || entries[1].Table != models.TableBookings {
		t.Errorf("queue order = %s,%s, want tenants,bookings", entries[0].Table, entries[1].Table)
	}

	var bookingPayload map[string]interface{}
	if err := json.Unmarshal(entries[1].Payload, &bookingPayload); err != nil {
		t.Fatalf("booking payload decode failed: %v", err)
	}
	if int64(bookingPayload["tempTenantId"].(float64)) != tempID {
		t.Errorf("tempTenantId = %v, want %d", bookingPayload["tempTenantId"], tempID)
	}
	if int64(bookingPayload["tenant_id"].(float64)) != tempID {
		t.Errorf("tenant_id = %v, want %d", bookingPayload["tenant_id"], tempID)
	}
}

func TestCreateTenantWithoutBed(t *testing.T) {
	accessor, db := newTestAccessor(t)

	tempID, err := accessor.CreateTenant(models.Tenant{Name: "Sita"}, 0, 0, 0)
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if tempID >= 0 {
		t.Fatalf("tenant id = %d, want negative", tempID)
	}

	var bookings int64
	db.Model(&models.Booking{}).Count(&bookings)
	if bookings != 0 {
		t.Errorf("bookings = %d, want 0", bookings)
	}

	count, err := db.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("queue length = %d, want 1", count)
	}
}

func TestTempIDsStrictlyDecreaseAcrossWrites(t *testing.T) {
	accessor, _ := newTestAccessor(t)

	first, err := accessor.CreateTenant(models.Tenant{Name: "A"}, 0, 0, 0)
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	second, err := accessor.CreateExpense(models.Expense{Category: "maintenance", Amount: 500})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if second >= first {
		t.Errorf("ids not strictly decreasing: %d then %d", first, second)
	}
}

func TestAllocatorSeedsBelowMirrorMin(t *testing.T) {
	db := newTestStore(t)
	if err := db.Create(&models.Tenant{ID: -5, Name: "Queued", PendingOp: models.PendingCreate}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	accessor, err := NewAccessor(db)
	if err != nil {
		t.Fatalf("NewAccessor failed: %v", err)
	}

	id, err := accessor.CreateTenant(models.Tenant{Name: "Next"}, 0, 0, 0)
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	if id != -6 {
		t.Errorf("id = %d, want -6", id)
	}
}

func TestMarkInvoicePaid(t *testing.T) {
	accessor, db := newTestAccessor(t)
	if err := db.Create(&models.Invoice{
		ID: 50, TenantID: 3, Period: "2081-04", Amount: 8000, Fine: 200,
		Status: models.InvoicePending, DueDate: "2081-04-05", Synced: true,
	}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := accessor.MarkInvoicePaid(50); err != nil {
		t.Fatalf("MarkInvoicePaid failed: %v", err)
	}

	var inv models.Invoice
	if err := db.First(&inv, "id = ?", 50).Error; err != nil {
		t.Fatalf("invoice missing: %v", err)
	}
	if inv.Status != models.InvoicePaid || inv.PaidAmount != 8200 {
		t.Errorf("invoice = %s %v, want paid 8200", inv.Status, inv.PaidAmount)
	}
	if inv.Synced || inv.PendingOp != models.PendingUpdate {
		t.Errorf("invoice flags = synced:%v op:%q, want unsynced update", inv.Synced, inv.PendingOp)
	}

	entries, err := db.PendingMutations()
	if err != nil || len(entries) != 1 {
		t.Fatalf("queue = %d entries (%v), want 1", len(entries), err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(entries[0].Payload, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload["action"] != "markPaid" {
		t.Errorf("action = %v, want markPaid", payload["action"])
	}
}

func TestListTenantsFiltersAndSorts(t *testing.T) {
	accessor, db := newTestAccessor(t)
	db.Create(&models.Tenant{ID: 1, Name: "Sita", Phone: "9811111111", HomeLocation: "Pokhara", Status: models.TenantActive, Synced: true})
	db.Create(&models.Tenant{ID: 2, Name: "Ram", Phone: "9822222222", HomeLocation: "Butwal", Status: models.TenantActive, Synced: true})
	db.Create(&models.Tenant{ID: 3, Name: "Hari", Phone: "9833333333", HomeLocation: "Pokhara", Status: models.TenantLeft, Synced: true})

	all, err := accessor.ListTenants(TenantFilters{})
	if err != nil {
		t.Fatalf("ListTenants failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Hari" || all[2].Name != "Sita" {
		t.Errorf("unexpected order: %+v", names(all))
	}

	active, err := accessor.ListTenants(TenantFilters{Status: "active", Location: "Pokhara"})
	if err != nil {
		t.Fatalf("ListTenants failed: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Sita" {
		t.Errorf("filtered = %v, want [Sita]", names(active))
	}

	bySearch, err := accessor.ListTenants(TenantFilters{Search: "ram"})
	if err != nil {
		t.Fatalf("ListTenants failed: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].Name != "Ram" {
		t.Errorf("search = %v, want [Ram]", names(bySearch))
	}
}

func names(tenants []models.Tenant) []string {
	out := make([]string, len(tenants))
	for i, t := range tenants {
		out[i] = t.Name
	}
	return out
}

func TestAvailableBedsLabels(t *testing.T) {
	accessor, db := newTestAccessor(t)
	seedBed(t, db, 7)
	db.Create(&models.Bed{ID: 8, RoomID: 2, Label: "B", Status: models.BedOccupied, Synced: true})

	beds, err := accessor.AvailableBeds()
	if err != nil {
		t.Fatalf("AvailableBeds failed: %v", err)
	}
	if len(beds) != 1 {
		t.Fatalf("available = %d, want 1", len(beds))
	}
	if beds[0].Label != "Room 101-A" || beds[0].Price != 8000 {
		t.Errorf("bed = %q %v, want 'Room 101-A' 8000", beds[0].Label, beds[0].Price)
	}
}

func TestInvoicesByTab(t *testing.T) {
	accessor, db := newTestAccessor(t)
	db.Create(&models.Invoice{ID: 1, Status: models.InvoicePending, DueDate: "2081-04-05", Synced: true})
	db.Create(&models.Invoice{ID: 2, Status: models.InvoicePaid, DueDate: "2081-04-01", Synced: true})
	db.Create(&models.Invoice{ID: 3, Status: models.InvoiceOverdue, DueDate: "2081-03-05", Synced: true})

	due, err := accessor.Invoices("due")
	if err != nil {
		t.Fatalf("Invoices failed: %v", err)
	}
	if len(due) != 2 || due[0].ID != 3 || due[1].ID != 1 {
		t.Errorf("due tab = %+v, want [3 1] by due date", ids(due))
	}

	all, err := accessor.Invoices("")
	if err != nil {
		t.Fatalf("Invoices failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func ids(invoices []models.Invoice) []int64 {
	out := make([]int64, len(invoices))
	for i, inv := range invoices {
		out[i] = inv.ID
	}
	return out
}

func TestFloorsWithOccupancyAttachesTenant(t *testing.T) {
	accessor, db := newTestAccessor(t)
	seedBed(t, db, 7)
	db.Create(&models.Tenant{ID: 10, Name: "Gita", Status: models.TenantActive, Synced: true})
	db.Create(&models.Booking{ID: 20, TenantID: 10, BedID: 7, IsActive: true, Synced: true})
	db.Model(&models.Bed{}).Where("id = ?", 7).Update("status", models.BedOccupied)

	floors, err := accessor.FloorsWithOccupancy()
	if err != nil {
		t.Fatalf("FloorsWithOccupancy failed: %v", err)
	}
	if len(floors) != 1 || len(floors[0].Rooms) != 1 || len(floors[0].Rooms[0].Beds) != 1 {
		t.Fatalf("unexpected tree shape: %+v", floors)
	}

	bed := floors[0].Rooms[0].Beds[0]
	if bed.CurrentTenant == nil || bed.CurrentTenant.Name != "Gita" {
		t.Errorf("occupied bed missing tenant: %+v", bed.CurrentTenant)
	}
}

func TestDashboardStatsUsesStoredPeriod(t *testing.T) {
	accessor, db := newTestAccessor(t)
	db.Create(&models.Invoice{ID: 1, Period: "2081-04", Amount: 5000, PaidAmount: 5000, Status: models.InvoicePaid, Synced: true})
	db.Create(&models.Tenant{ID: 1, Name: "L", Status: models.TenantLeaving, Synced: true})

	stats, err := accessor.DashboardStats("2081-04")
	if err != nil {
		t.Fatalf("DashboardStats failed: %v", err)
	}
	if stats.Revenue.DueThisMonth != 5000 || stats.Revenue.CollectionRate != 100 {
		t.Errorf("revenue = %+v", stats.Revenue)
	}
	if stats.LeavingTenants != 1 {
		t.Errorf("leaving = %d, want 1", stats.LeavingTenants)
	}
}
