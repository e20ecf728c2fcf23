package ports

import (
	"context"
	"time"

	"prismfinance/internal/domain"
)

// TemplateRepository stores uploaded templates and their derived variables.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, t *domain.Template) error
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)
	ListTemplates(ctx context.Context) ([]*domain.Template, error)
	UpdateTemplate(ctx context.Context, t *domain.Template) error
	DeleteTemplate(ctx context.Context, id string) error
	// TemplateInUse reports whether any contract references the template.
	TemplateInUse(ctx context.Context, id string) (bool, error)
}

// SupplierRepository stores the company records the binder reads from.
type SupplierRepository interface {
	CreateSupplier(ctx context.Context, s *domain.Supplier) error
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]*domain.Supplier, error)
}

// ContractFilter narrows contract listings.
type ContractFilter struct {
	SupplierID string
	Status     domain.Status
}

// ContractRepository stores contracts and serialises writes per contract id.
type ContractRepository interface {
	CreateContract(ctx context.Context, c *domain.Contract) error
	GetContract(ctx context.Context, id string) (*domain.Contract, error)
	ListContracts(ctx context.Context, f ContractFilter) ([]*domain.Contract, error)
	DeleteContract(ctx context.Context, id string) error

	// MutateContract loads the contract under a per-row write lock, applies fn
	// and persists the result atomically. Signature writes and the variable
	// freeze both go through here, which is what makes two concurrent sign
	// attempts by the same party resolve to exactly one success.
	MutateContract(ctx context.Context, id string, fn func(*domain.Contract) error) (*domain.Contract, error)

	// ListOverdue returns ids of non-final contracts whose expiry deadline has
	// passed, for the expiry worker to sweep.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error)
}
