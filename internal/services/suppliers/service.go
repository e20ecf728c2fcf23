package suppliers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
	"prismfinance/internal/template"
)

// Service exposes supplier records and the variable auto-fill the contract
// form uses when a supplier is selected. The template engine only ever reads
// supplier data.
type Service struct {
	suppliers ports.SupplierRepository
	templates ports.TemplateRepository
}

func New(suppliers ports.SupplierRepository, templates ports.TemplateRepository) *Service {
	return &Service{suppliers: suppliers, templates: templates}
}

func (s *Service) Create(ctx context.Context, sup domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(sup.CompanyName) == "" {
		return nil, fmt.Errorf("%w: company name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(sup.Email) == "" {
		return nil, fmt.Errorf("%w: contact email is required", domain.ErrValidation)
	}
	sup.ID = uuid.NewString()
	sup.CreatedAt = time.Now().UTC()
	if err := s.suppliers.CreateSupplier(ctx, &sup); err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.suppliers.GetSupplier(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Supplier, error) {
	return s.suppliers.ListSuppliers(ctx)
}

// Autofill binds the template's placeholders against the supplier. When the
// caller passes the mapping it already collected, values the supplier cannot
// resolve are preserved instead of wiped, so switching suppliers on the form
// never loses typed-in entries.
func (s *Service) Autofill(ctx context.Context, templateID, supplierID string, current map[string]string) (map[string]string, error) {
	t, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	var sup *domain.Supplier
	if supplierID != "" {
		sup, err = s.suppliers.GetSupplier(ctx, supplierID)
		if err != nil {
			return nil, err
		}
	}
	if current == nil {
		return template.Bind(t.Variables, sup), nil
	}
	return template.Rebind(current, t.Variables, sup), nil
}
