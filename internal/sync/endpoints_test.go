package sync

import (
	"testing"

	"github.com/hostelmate/hostelmatego/internal/models"
)

func TestEndpointFor(t *testing.T) {
	tests := []struct {
		name      string
		table     models.Table
		operation string
		payload   map[string]interface{}
		wantPath  string
		wantVerb  string
	}{
		{
			name: "tenant create", table: models.TableTenants, operation: models.PendingCreate,
			payload:  map[string]interface{}{"name": "Ram", "tempId": float64(-1)},
			wantPath: "/api/tenants", wantVerb: "POST",
		},
		{
			name: "tenant update", table: models.TableTenants, operation: models.PendingUpdate,
			payload:  map[string]interface{}{"id": float64(42)},
			wantPath: "/api/tenants/42", wantVerb: "PATCH",
		},
		{
			name: "tenant delete", table: models.TableTenants, operation: models.PendingDelete,
			payload:  map[string]interface{}{"id": float64(42)},
			wantPath: "/api/tenants/42", wantVerb: "DELETE",
		},
		{
			name: "booking create", table: models.TableBookings, operation: models.PendingCreate,
			payload:  map[string]interface{}{"tenant_id": float64(900), "tempId": float64(-2)},
			wantPath: "/api/bookings", wantVerb: "POST",
		},
		{
			name: "invoice mark paid", table: models.TableInvoices, operation: models.PendingUpdate,
			payload:  map[string]interface{}{"id": float64(50), "action": "markPaid"},
			wantPath: "/api/finance/invoices/50/mark-paid", wantVerb: "PATCH",
		},
		{
			name: "invoice plain update", table: models.TableInvoices, operation: models.PendingUpdate,
			payload:  map[string]interface{}{"id": float64(50)},
			wantPath: "/api/invoices/50", wantVerb: "PATCH",
		},
		{
			name: "expense create", table: models.TableExpenses, operation: models.PendingCreate,
			payload:  map[string]interface{}{"amount": float64(500), "tempId": float64(-3)},
			wantPath: "/api/finance/expenses", wantVerb: "POST",
		},
		{
			name: "expense delete", table: models.TableExpenses, operation: models.PendingDelete,
			payload:  map[string]interface{}{"id": float64(7)},
			wantPath: "/api/expenses/7", wantVerb: "DELETE",
		},
		{
			name: "room update", table: models.TableRooms, operation: models.PendingUpdate,
			payload:  map[string]interface{}{"id": float64(3)},
			wantPath: "/api/rooms/3", wantVerb: "PATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, verb, err := endpointFor(tt.table, tt.operation, tt.payload)
			if err != nil {
				t.Fatalf("endpointFor failed: %v", err)
			}
			if path != tt.wantPath || verb != tt.wantVerb {
				t.Errorf("got %s %s, want %s %s", verb, path, tt.wantVerb, tt.wantPath)
			}
		})
	}
}

func TestEndpointForRejectsUnknownOperation(t *testing.T) {
	if _, _, err := endpointFor(models.TableTenants, "upsert", nil); err == nil {
		t.Fatal("accepted unknown operation")
	}
}

func TestSubstituteTempIDs(t *testing.T) {
	resolved := map[int64]int64{-1: 900}
	payload := map[string]interface{}{
		"tenant_id": float64(-1),
		"bed_id":    float64(7),
	}

	if err := substituteTempIDs(models.TableBookings, payload, resolved); err != nil {
		t.Fatalf("substituteTempIDs failed: %v", err)
	}
	if payload["tenant_id"] != int64(900) {
		t.Errorf("tenant_id = %v, want 900", payload["tenant_id"])
	}
	if payload["bed_id"] != float64(7) {
		t.Errorf("bed_id rewritten to %v, want untouched", payload["bed_id"])
	}
}

func TestSubstituteTempIDsUnresolvedFails(t *testing.T) {
	payload := map[string]interface{}{"tenant_id": float64(-5)}
	if err := substituteTempIDs(models.TableBookings, payload, map[int64]int64{}); err == nil {
		t.Fatal("unresolved temporary identity accepted")
	}
}
