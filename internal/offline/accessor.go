package offline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/store"
	"gorm.io/gorm"
)

// Accessor is the read/write facade over the local mirror. Reads are
// entity-shaped (filters applied in memory; the mirror holds a few
// thousand rows at most). Every optimistic write pairs the mirror
// mutation with exactly one mutation-queue entry inside one
// transaction, so no local change can be lost from the queue and no
// queue entry can exist without its mirror mutation.
type Accessor struct {
	db  *store.DB
	ids *TempIDAllocator
	now func() time.Time
}

// NewAccessor creates an accessor, seeding the temporary-identity
// allocator below any negative identity already in the mirror.
func NewAccessor(db *store.DB) (*Accessor, error) {
	floor, err := db.MinMirrorID()
	if err != nil {
		return nil, fmt.Errorf("failed to seed temp id allocator: %w", err)
	}
	return &Accessor{
		db:  db,
		ids: NewTempIDAllocator(floor),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// TenantFilters narrows the tenant list.
type TenantFilters struct {
	Search   string
	Status   string
	Location string
}

// ListTenants loads all tenant rows, applies the filters in memory,
// attaches each tenant's active booking, and sorts by name.
func (a *Accessor) ListTenants(filters TenantFilters) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := a.db.Find(&tenants).Error; err != nil {
		return nil, err
	}

	filtered := tenants[:0]
	search := strings.ToLower(filters.Search)
	for _, t := range tenants {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Phone), search) &&
			!strings.Contains(strings.ToLower(t.HomeLocation), search) {
			continue
		}
		if filters.Status != "" && string(t.Status) != filters.Status {
			continue
		}
		if filters.Location != "" && t.HomeLocation != filters.Location {
			continue
		}
		filtered = append(filtered, t)
	}

	for i := range filtered {
		booking, err := a.activeBookingForTenant(filtered[i].ID)
		if err != nil {
			return nil, err
		}
		filtered[i].ActiveBooking = booking
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Name < filtered[j].Name
	})
	return filtered, nil
}

// Tenant loads one tenant with its active booking and that booking's bed.
func (a *Accessor) Tenant(id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := a.db.First(&tenant, "id = ?", id).Error; err != nil {
		return nil, err
	}

	booking, err := a.activeBookingForTenant(id)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		var bed models.Bed
		if err := a.db.First(&bed, "id = ?", booking.BedID).Error; err == nil {
			booking.Bed = &bed
		}
	}
	tenant.ActiveBooking = booking
	return &tenant, nil
}

func (a *Accessor) activeBookingForTenant(tenantID int64) (*models.Booking, error) {
	var booking models.Booking
	err := a.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).First(&booking).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// FloorsWithOccupancy returns each floor with its rooms, each room with
// its beds, and each occupied bed with the tenant of its active
// booking. An N+1 expansion, acceptable at local-store latency.
func (a *Accessor) FloorsWithOccupancy() ([]models.Floor, error) {
	var floors []models.Floor
	if err := a.db.Order("position asc").Find(&floors).Error; err != nil {
		return nil, err
	}

	for fi := range floors {
		var rooms []models.Room
		if err := a.db.Where("floor_id = ?", floors[fi].ID).Find(&rooms).Error; err != nil {
			return nil, err
		}

		for ri := range rooms {
			var beds []models.Bed
			if err := a.db.Where("room_id = ?", rooms[ri].ID).Find(&beds).Error; err != nil {
				return nil, err
			}

			for bi := range beds {
				if beds[bi].Status != models.BedOccupied {
					continue
				}
				var booking models.Booking
				err := a.db.Where("bed_id = ? AND is_active = ?", beds[bi].ID, true).First(&booking).Error
				if err == gorm.ErrRecordNotFound {
					continue
				}
				if err != nil {
					return nil, err
				}
				var tenant models.Tenant
				if err := a.db.First(&tenant, "id = ?", booking.TenantID).Error; err == nil {
					beds[bi].CurrentTenant = &tenant
				}
			}
			rooms[ri].Beds = beds
		}
		floors[fi].Rooms = rooms
	}
	return floors, nil
}

// AvailableBed is a bed-picker entry for the create-tenant form.
type AvailableBed struct {
	ID    int64   `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// AvailableBeds lists free beds with their room label and base price.
func (a *Accessor) AvailableBeds() ([]AvailableBed, error) {
	var beds []models.Bed
	if err := a.db.Where("status = ?", models.BedAvailable).Find(&beds).Error; err != nil {
		return nil, err
	}

	out := make([]AvailableBed, 0, len(beds))
	for _, bed := range beds {
		var room models.Room
		if err := a.db.First(&room, "id = ?", bed.RoomID).Error; err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		out = append(out, AvailableBed{
			ID:    bed.ID,
			Label: fmt.Sprintf("Room %s-%s", room.RoomNumber, bed.Label),
			Price: room.BasePrice,
		})
	}
	return out, nil
}

// Invoices returns invoices for a list tab (due, paid, draft; empty tab
// returns all), sorted by due date, each with its tenant attached.
func (a *Accessor) Invoices(tab string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	q := a.db.Order("due_date asc")
	if statuses := models.TabStatuses(tab); statuses != nil {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}

	for i := range invoices {
		var tenant models.Tenant
		if err := a.db.First(&tenant, "id = ?", invoices[i].TenantID).Error; err == nil {
			invoices[i].Tenant = &tenant
		}
	}
	return invoices, nil
}

// CurrentPeriod returns the server-issued BS year-month key stored by
// the last full pull, or "" when no pull has happened yet.
func (a *Accessor) CurrentPeriod() string {
	v, err := a.db.MetaGet(models.MetaCurrentPeriod)
	if err != nil {
		return ""
	}
	return v
}

// DashboardStats computes the offline dashboard aggregate. period is
// the current BS year-month key (server-issued, stored in app_meta by
// the full pull).
func (a *Accessor) DashboardStats(period string) (*DashboardStats, error) {
	var beds []models.Bed
	if err := a.db.Find(&beds).Error; err != nil {
		return nil, err
	}

	var invoices []models.Invoice
	if err := a.db.Order("due_date asc").Find(&invoices).Error; err != nil {
		return nil, err
	}

	var leaving int64
	if err := a.db.Model(&models.Tenant{}).Where("status = ?", models.TenantLeaving).Count(&leaving).Error; err != nil {
		return nil, err
	}

	today := a.now().Format("2006-01-02")
	stats := BuildDashboardStats(beds, invoices, leaving, period, today)

	for i := range stats.OverdueInvoices {
		var tenant models.Tenant
		if err := a.db.First(&tenant, "id = ?", stats.OverdueInvoices[i].TenantID).Error; err == nil {
			stats.OverdueInvoices[i].Tenant = &tenant
		}
	}
	return &stats, nil
}

// CreateTenant writes a tenant optimistically with a temporary
// identity. If bedID is nonzero a booking is created too, the bed is
// marked occupied, and both creates are queued, all in one
// transaction. Returns the temporary tenant identity.
func (a *Accessor) CreateTenant(data models.Tenant, bedID int64, rent, advance float64) (int64, error) {
	tempID := a.ids.Next()

	err := a.db.DB.Transaction(func(tx *gorm.DB) error {
		tenant := data
		tenant.ID = tempID
		tenant.Synced = false
		tenant.PendingOp = models.PendingCreate
		if tenant.Status == "" {
			tenant.Status = models.TenantActive
		}
		if tenant.CreatedAt == "" {
			tenant.CreatedAt = a.now().Format(time.RFC3339)
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		if err := store.Enqueue(tx, models.TableTenants, models.PendingCreate, map[string]interface{}{
			"hostel_id":     tenant.HostelID,
			"name":          tenant.Name,
			"phone":         tenant.Phone,
			"parent_phone":  tenant.ParentPhone,
			"home_location": tenant.HomeLocation,
			"id_type":       tenant.IDType,
			"id_number":     tenant.IDNumber,
			"photo_url":     tenant.PhotoURL,
			"status":        tenant.Status,
			"tempId":        tempID,
		}); err != nil {
			return err
		}

		if bedID == 0 {
			return nil
		}

		bookingTempID := a.ids.Next()
		booking := models.Booking{
			ID:          bookingTempID,
			TenantID:    tempID,
			BedID:       bedID,
			StartDate:   a.now().Format("2006-01-02"),
			AgreedRent:  rent,
			AdvancePaid: advance,
			IsActive:    true,
			Synced:      false,
			PendingOp:   models.PendingCreate,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Bed{}).Where("id = ?", bedID).
			Update("status", models.BedOccupied).Error; err != nil {
			return err
		}

		return store.Enqueue(tx, models.TableBookings, models.PendingCreate, map[string]interface{}{
			"tenant_id":    tempID,
			"bed_id":       bedID,
			"start_date":   booking.StartDate,
			"agreed_rent":  booking.AgreedRent,
			"advance_paid": booking.AdvancePaid,
			"is_active":    true,
			"tempId":       bookingTempID,
			"tempTenantId": tempID,
		})
	})
	if err != nil {
		return 0, err
	}
	return tempID, nil
}

// CreateExpense writes an expense optimistically and queues the create.
func (a *Accessor) CreateExpense(data models.Expense) (int64, error) {
	tempID := a.ids.Next()

	err := a.db.DB.Transaction(func(tx *gorm.DB) error {
		expense := data
		expense.ID = tempID
		expense.Synced = false
		expense.PendingOp = models.PendingCreate
		if expense.ExpenseDate == "" {
			expense.ExpenseDate = a.now().Format("2006-01-02")
		}
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}

		return store.Enqueue(tx, models.TableExpenses, models.PendingCreate, map[string]interface{}{
			"hostel_id":    expense.HostelID,
			"category":     expense.Category,
			"description":  expense.Description,
			"amount":       expense.Amount,
			"expense_date": expense.ExpenseDate,
			"tempId":       tempID,
		})
	})
	if err != nil {
		return 0, err
	}
	return tempID, nil
}

// MarkInvoicePaid settles an invoice locally (paid amount = amount +
// fine) and queues the ledger operation. The payload carries the
// markPaid action discriminator: the server-side effect is a ledger
// entry, not a generic field patch.
func (a *Accessor) MarkInvoicePaid(id int64) error {
	return a.db.DB.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Invoice{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      models.InvoicePaid,
				"paid_amount": invoice.Amount + invoice.Fine,
				"paid_at":     a.now().Format(time.RFC3339),
				"synced":      false,
				"pending_op":  models.PendingUpdate,
			}).Error; err != nil {
			return err
		}

		return store.Enqueue(tx, models.TableInvoices, models.PendingUpdate, map[string]interface{}{
			"id":     id,
			"action": "markPaid",
		})
	})
}
