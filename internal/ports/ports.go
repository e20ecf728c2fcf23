package ports

import (
	"context"

	"prismfinance/internal/domain"
)

// TemplateUpdate carries the mutable template fields; nil means unchanged.
// Replacing Content re-runs extraction; existing contracts keep their
// generation-time snapshot either way.
type TemplateUpdate struct {
	Name         *string
	ValidityDays *int
	IsActive     *bool
	Content      []byte
}

// Templates manages uploaded contract templates.
type Templates interface {
	Upload(ctx context.Context, name string, validityDays int, content []byte) (*domain.Template, error)
	Get(ctx context.Context, id string) (*domain.Template, error)
	List(ctx context.Context) ([]*domain.Template, error)
	Variables(ctx context.Context, id string) ([]string, error)
	Update(ctx context.Context, id string, upd TemplateUpdate) (*domain.Template, error)
	Delete(ctx context.Context, id string) error
}

// Suppliers exposes supplier records and the binder's auto-fill.
type Suppliers interface {
	Create(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	Get(ctx context.Context, id string) (*domain.Supplier, error)
	List(ctx context.Context) ([]*domain.Supplier, error)
	// Autofill proposes a total variable mapping for the template against the
	// supplier, preserving user-entered values the supplier cannot resolve.
	Autofill(ctx context.Context, templateID, supplierID string, current map[string]string) (map[string]string, error)
}

// GenerateParams are the inputs to contract generation.
type GenerateParams struct {
	Name       string
	TemplateID string
	SupplierID string
	Variables  map[string]string
	Actor      string
}

// ContractUpdate carries draft-only contract edits.
type ContractUpdate struct {
	Name      *string
	Variables map[string]string
}

// Contracts drives the contract lifecycle: preview, generation (freeze),
// signatures and the audit trail.
type Contracts interface {
	Preview(ctx context.Context, templateID string, vars map[string]string) (string, error)
	Generate(ctx context.Context, p GenerateParams) (*domain.Contract, error)
	Get(ctx context.Context, id string) (*domain.Contract, error)
	List(ctx context.Context, f ContractFilter) ([]*domain.Contract, error)
	Update(ctx context.Context, id string, upd ContractUpdate, actor string) (*domain.Contract, error)
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, id, actor string) (*domain.Contract, error)
	Sign(ctx context.Context, id string, party domain.Party, sig domain.Signature, actor string) (*domain.Contract, error)
	Cancel(ctx context.Context, id, actor string) (*domain.Contract, error)
	Download(ctx context.Context, id string) (filename string, content []byte, err error)
	Activity(ctx context.Context, id string) ([]domain.ActivityEntry, error)
}
