package sync

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/store"
	"gorm.io/gorm"
)

// PagePayload is the fresh server data a rendered page carries: each
// page type populates only its own slices. Amounts may arrive as JSON
// strings; Amount et al. therefore decode through flexFloat.
type PagePayload struct {
	Page     string           `json:"page"`
	Tab      string           `json:"tab,omitempty"`
	Tenants  []models.Tenant  `json:"tenants,omitempty"`
	Floors   []models.Floor   `json:"floors,omitempty"`
	Invoices []PageInvoice    `json:"invoices,omitempty"`
	Expenses []models.Expense `json:"expenses,omitempty"`
}

// PageInvoice is an invoice as the finance page serializes it. The
// money columns pass through flexFloat because the server renders
// decimal columns as strings.
type PageInvoice struct {
	ID         int64                `json:"id"`
	TenantID   int64                `json:"tenant_id"`
	BookingID  int64                `json:"booking_id"`
	Period     string               `json:"period"`
	Amount     flexFloat            `json:"amount"`
	Fine       flexFloat            `json:"fine"`
	PaidAmount flexFloat            `json:"paid_amount"`
	Status     models.InvoiceStatus `json:"status"`
	DueDate    string               `json:"due_date"`
	PaidAt     string               `json:"paid_at"`
}

func (p PageInvoice) model() models.Invoice {
	return models.Invoice{
		ID:         p.ID,
		TenantID:   p.TenantID,
		BookingID:  p.BookingID,
		Period:     p.Period,
		Amount:     float64(p.Amount),
		Fine:       float64(p.Fine),
		PaidAmount: float64(p.PaidAmount),
		Status:     p.Status,
		DueDate:    p.DueDate,
		PaidAt:     p.PaidAt,
	}
}

// flexFloat decodes a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Reconciler folds fresh per-page server data into the mirror without
// clobbering local unsynced edits: a row is written only when the local
// copy is absent or synced. The finance page additionally evicts synced
// invoices that sit in the active tab's status bucket but are missing
// from the payload, so rows settled elsewhere disappear from the tab.
type Reconciler struct {
	db *store.DB
}

func NewReconciler(db *store.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile applies one page payload inside a single transaction.
func (r *Reconciler) Reconcile(payload *PagePayload) error {
	switch payload.Page {
	case "tenants":
		return r.db.DB.Transaction(func(tx *gorm.DB) error {
			for i := range payload.Tenants {
				row := payload.Tenants[i]
				if err := upsertSynced(tx, models.TableTenants, row.ID, func() error {
					row.Synced = true
					row.PendingOp = models.PendingNone
					return tx.Save(&row).Error
				}); err != nil {
					return err
				}
			}
			return nil
		})

	case "bedGrid":
		return r.db.DB.Transaction(func(tx *gorm.DB) error {
			return r.reconcileBedGrid(tx, payload.Floors)
		})

	case "finance":
		return r.db.DB.Transaction(func(tx *gorm.DB) error {
			if err := r.reconcileInvoices(tx, payload.Invoices, payload.Tab); err != nil {
				return err
			}
			for i := range payload.Expenses {
				row := payload.Expenses[i]
				if err := upsertSynced(tx, models.TableExpenses, row.ID, func() error {
					row.Synced = true
					row.PendingOp = models.PendingNone
					return tx.Save(&row).Error
				}); err != nil {
					return err
				}
			}
			return nil
		})

	case "dashboard":
		// Dashboard figures are computed from the mirror, never stored.
		return nil
	}

	return fmt.Errorf("unknown page type: %s", payload.Page)
}

// reconcileBedGrid flattens the nested floor tree and upserts each
// level independently.
func (r *Reconciler) reconcileBedGrid(tx *gorm.DB, floors []models.Floor) error {
	for fi := range floors {
		floor := floors[fi]
		rooms := floor.Rooms
		floor.Rooms = nil
		if err := upsertSynced(tx, models.TableFloors, floor.ID, func() error {
			floor.Synced = true
			floor.PendingOp = models.PendingNone
			return tx.Save(&floor).Error
		}); err != nil {
			return err
		}

		for ri := range rooms {
			room := rooms[ri]
			beds := room.Beds
			room.Beds = nil
			if room.FloorID == 0 {
				room.FloorID = floor.ID
			}
			if err := upsertSynced(tx, models.TableRooms, room.ID, func() error {
				room.Synced = true
				room.PendingOp = models.PendingNone
				return tx.Save(&room).Error
			}); err != nil {
				return err
			}

			for bi := range beds {
				bed := beds[bi]
				bed.CurrentTenant = nil
				if bed.RoomID == 0 {
					bed.RoomID = room.ID
				}
				if err := upsertSynced(tx, models.TableBeds, bed.ID, func() error {
					bed.Synced = true
					bed.PendingOp = models.PendingNone
					return tx.Save(&bed).Error
				}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// reconcileInvoices upserts the payload rows and, when a tab is given,
// evicts synced local invoices belonging to that tab's status bucket
// but absent from the payload. Unsynced rows are never evicted.
func (r *Reconciler) reconcileInvoices(tx *gorm.DB, invoices []PageInvoice, tab string) error {
	fresh := make(map[int64]bool, len(invoices))
	for i := range invoices {
		row := invoices[i].model()
		fresh[row.ID] = true
		if err := upsertSynced(tx, models.TableInvoices, row.ID, func() error {
			row.Synced = true
			row.PendingOp = models.PendingNone
			return tx.Save(&row).Error
		}); err != nil {
			return err
		}
	}

	if models.TabStatuses(tab) == nil {
		return nil
	}

	var local []models.Invoice
	if err := tx.Where("synced = ?", true).Find(&local).Error; err != nil {
		return err
	}
	for i := range local {
		if fresh[local[i].ID] || !local[i].InTab(tab) {
			continue
		}
		if err := tx.Delete(&models.Invoice{}, local[i].ID).Error; err != nil {
			return err
		}
		log.Printf("🧹 Evicted invoice %d from %s tab (gone upstream)", local[i].ID, tab)
	}
	return nil
}

// upsertSynced runs save only when the local row with the given id is
// absent or synced. An unsynced local row holds a user edit the queue
// has not delivered yet and must win over the page copy.
func upsertSynced(tx *gorm.DB, table models.Table, id int64, save func() error) error {
	var rows []struct{ Synced bool }
	if err := tx.Table(string(table)).Select("synced").
		Where("id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return err
	}
	if len(rows) > 0 && !rows[0].Synced {
		return nil
	}
	return save()
}
