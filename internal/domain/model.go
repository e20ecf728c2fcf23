package domain

import "time"

// Core domain models. Storage rows and HTTP payloads are mapped onto these in
// the adapters; services only ever see these types.

// Template is an uploaded contract template. RawContent is the text extracted
// from the uploaded document at creation time; Variables is derived from
// RawContent (first-occurrence order, duplicates collapsed) and is never
// edited independently.
type Template struct {
	ID           string
	Name         string
	RawContent   string
	Variables    []string
	ValidityDays int // 0 means contracts generated from it never expire
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Supplier is the company record used as the binder's data source. The
// template engine reads it and never writes it.
type Supplier struct {
	ID                 string
	CompanyName        string
	LegalForm          string
	RegisteredCapital  string
	Address            string
	PostalCode         string
	City               string
	Country            string
	RegistryNumber     string
	RegistryCity       string
	RepresentativeName string
	RepresentativeRole string
	Email              string
	Phone              string
	CreatedAt          time.Time
}

// Signature records one party's signature on a contract.
type Signature struct {
	Name  string    `json:"name"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// Contract is generated from a template for a supplier. RawContent and
// Variables are snapshots taken at generation time: editing the template or
// the supplier afterwards never changes an existing contract. Version is
// bumped on every write and backs the optimistic check in the storage adapter.
type Contract struct {
	ID                string
	Name              string
	TemplateID        string
	SupplierID        string
	RawContent        string
	Content           string
	Variables         map[string]string
	Status            Status
	AdminSignature    *Signature
	SupplierSignature *Signature
	ActivityLog       []ActivityEntry
	ExpiresAt         *time.Time
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Activity entry types recognised by the UI.
const (
	ActivityStatusUpdate = "status_update"
	ActivitySignature    = "signature"
	ActivityEmail        = "email"
)

// ActivityEntry is one line of a contract's append-only audit trail.
type ActivityEntry struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ActorName string    `json:"actor_name"`
	Timestamp time.Time `json:"timestamp"`
}
