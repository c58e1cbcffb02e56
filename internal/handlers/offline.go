package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/offline"
	"gorm.io/gorm"
)

func (r *Router) listTenants(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	tenants, err := r.accessor.ListTenants(offline.TenantFilters{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Location: q.Get("location"),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch tenants")
		return
	}
	respondJSON(w, http.StatusOK, tenants)
}

func (r *Router) getTenant(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	tenant, err := r.accessor.Tenant(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Tenant not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch tenant")
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

func (r *Router) listFloors(w http.ResponseWriter, req *http.Request) {
	floors, err := r.accessor.FloorsWithOccupancy()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch floors")
		return
	}
	respondJSON(w, http.StatusOK, floors)
}

func (r *Router) listAvailableBeds(w http.ResponseWriter, req *http.Request) {
	beds, err := r.accessor.AvailableBeds()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch beds")
		return
	}
	respondJSON(w, http.StatusOK, beds)
}

func (r *Router) listInvoices(w http.ResponseWriter, req *http.Request) {
	invoices, err := r.accessor.Invoices(req.URL.Query().Get("tab"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch invoices")
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

func (r *Router) getDashboard(w http.ResponseWriter, req *http.Request) {
	period := req.URL.Query().Get("period")
	if period == "" {
		period = r.accessor.CurrentPeriod()
	}

	stats, err := r.accessor.DashboardStats(period)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute dashboard")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// createTenantRequest is the create-tenant form: tenant fields plus the
// optional bed assignment.
type createTenantRequest struct {
	models.Tenant
	BedID       int64   `json:"bed_id"`
	AgreedRent  float64 `json:"agreed_rent"`
	AdvancePaid float64 `json:"advance_paid"`
}

func (r *Router) createTenant(w http.ResponseWriter, req *http.Request) {
	var body createTenantRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if body.Name == "" {
		respondError(w, http.StatusBadRequest, "Tenant name is required")
		return
	}

	id, err := r.accessor.CreateTenant(body.Tenant, body.BedID, body.AgreedRent, body.AdvancePaid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create tenant")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (r *Router) createExpense(w http.ResponseWriter, req *http.Request) {
	var body models.Expense
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if body.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "Expense amount must be positive")
		return
	}

	id, err := r.accessor.CreateExpense(body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create expense")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (r *Router) markInvoicePaid(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invoice id")
		return
	}

	if err := r.accessor.MarkInvoicePaid(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to mark invoice paid")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func pathID(req *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
}
