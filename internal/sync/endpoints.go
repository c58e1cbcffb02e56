package sync

import (
	"fmt"

	"github.com/hostelmate/hostelmatego/internal/models"
)

// endpointFor derives the upstream path and HTTP verb for a queued
// mutation from (table, operation, payload). Invoice payloads carrying
// the markPaid action discriminator route to the distinguished ledger
// endpoint instead of the generic invoice update.
func endpointFor(table models.Table, operation string, payload map[string]interface{}) (string, string, error) {
	method, err := methodFor(operation)
	if err != nil {
		return "", "", err
	}

	id, _ := payloadID(payload)

	switch table {
	case models.TableTenants:
		if operation == models.PendingCreate {
			return "/api/tenants", method, nil
		}
		return fmt.Sprintf("/api/tenants/%d", id), method, nil

	case models.TableBookings:
		if operation == models.PendingCreate {
			return "/api/bookings", method, nil
		}
		return fmt.Sprintf("/api/bookings/%d", id), method, nil

	case models.TableInvoices:
		if action, _ := payload["action"].(string); action == "markPaid" {
			return fmt.Sprintf("/api/finance/invoices/%d/mark-paid", id), method, nil
		}
		return fmt.Sprintf("/api/invoices/%d", id), method, nil

	case models.TableExpenses:
		if operation == models.PendingCreate {
			return "/api/finance/expenses", method, nil
		}
		return fmt.Sprintf("/api/expenses/%d", id), method, nil

	case models.TableFloors, models.TableRooms, models.TableBeds:
		if operation == models.PendingCreate {
			return fmt.Sprintf("/api/%s", table), method, nil
		}
		return fmt.Sprintf("/api/%s/%d", table, id), method, nil
	}

	return "", "", fmt.Errorf("no endpoint for table %s", table)
}

func methodFor(operation string) (string, error) {
	switch operation {
	case models.PendingCreate:
		return "POST", nil
	case models.PendingUpdate:
		return "PATCH", nil
	case models.PendingDelete:
		return "DELETE", nil
	}
	return "", fmt.Errorf("unknown mutation operation: %s", operation)
}

// payloadID extracts the target identity from a mutation payload.
// JSON-decoded numbers arrive as float64.
func payloadID(payload map[string]interface{}) (int64, bool) {
	return asID(payload["id"])
}

func asID(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
