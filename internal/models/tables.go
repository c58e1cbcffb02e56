package models

// Table identifies one of the mirrored tables. The set is closed: the
// sync engine dispatches on it with exhaustive switches so a new
// mirrored entity cannot be added without deciding how it remaps.
type Table string

const (
	TableFloors   Table = "floors"
	TableRooms    Table = "rooms"
	TableBeds     Table = "beds"
	TableTenants  Table = "tenants"
	TableBookings Table = "bookings"
	TableInvoices Table = "invoices"
	TableExpenses Table = "expenses"
)

// MirroredTables lists every entity table in mirror order.
var MirroredTables = []Table{
	TableFloors,
	TableRooms,
	TableBeds,
	TableTenants,
	TableBookings,
	TableInvoices,
	TableExpenses,
}

// Valid reports whether t names a mirrored table.
func (t Table) Valid() bool {
	switch t {
	case TableFloors, TableRooms, TableBeds, TableTenants, TableBookings, TableInvoices, TableExpenses:
		return true
	}
	return false
}

// Model returns an empty prototype of t's row type for query building.
func (t Table) Model() interface{} {
	switch t {
	case TableFloors:
		return &Floor{}
	case TableRooms:
		return &Room{}
	case TableBeds:
		return &Bed{}
	case TableTenants:
		return &Tenant{}
	case TableBookings:
		return &Booking{}
	case TableInvoices:
		return &Invoice{}
	case TableExpenses:
		return &Expense{}
	}
	return nil
}

// ForeignKeys returns the payload keys of t's rows that reference other
// mirrored identities. The push flow substitutes server identities for
// temporary ones at these keys before a payload goes on the wire.
func (t Table) ForeignKeys() []string {
	switch t {
	case TableFloors:
		return nil
	case TableRooms:
		return []string{"floor_id"}
	case TableBeds:
		return []string{"room_id"}
	case TableTenants:
		return nil
	case TableBookings:
		return []string{"tenant_id", "bed_id"}
	case TableInvoices:
		return []string{"tenant_id", "booking_id"}
	case TableExpenses:
		return nil
	}
	return nil
}
