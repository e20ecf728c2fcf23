package contracts

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

// Service drives the contract lifecycle. Generation snapshots the template
// content and a total variable mapping onto the contract; from then on the
// contract renders only from its own snapshot, so template and supplier edits
// never reach existing contracts. All state changes go through the domain
// state machine inside ContractRepository.MutateContract, which serialises
// writers per contract id.
type Service struct {
	contracts ports.ContractRepository
	templates ports.TemplateRepository
	suppliers ports.SupplierRepository
}

func New(contracts ports.ContractRepository, templates ports.TemplateRepository, suppliers ports.SupplierRepository) *Service {
	return &Service{contracts: contracts, templates: templates, suppliers: suppliers}
}

// Preview renders the template against the given mapping without persisting
// anything. Placeholders missing from the mapping stay literal.
func (s *Service) Preview(ctx context.Context, templateID string, vars map[string]string) (string, error) {
	if templateID == "" {
		return "", fmt.Errorf("%w: template selection is required", domain.ErrValidation)
	}
	t, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	return template.Render(t.RawContent, vars), nil
}

// Generate creates the contract and freezes its variable snapshot. The stored
// mapping is total over the template's placeholders: auto-fill from the
// supplier first, then the caller's values on top, empty string for the rest.
func (s *Service) Generate(ctx context.Context, p ports.GenerateParams) (*domain.Contract, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: contract name is required", domain.ErrValidation)
	}
	if p.TemplateID == "" {
		return nil, fmt.Errorf("%w: template selection is required", domain.ErrValidation)
	}
	if p.SupplierID == "" {
		return nil, fmt.Errorf("%w: supplier selection is required", domain.ErrValidation)
	}
	t, err := s.templates.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, fmt.Errorf("%w: template %q is inactive", domain.ErrValidation, t.Name)
	}
	sup, err := s.suppliers.GetSupplier(ctx, p.SupplierID)
	if err != nil {
		return nil, err
	}

	vars := template.Bind(t.Variables, sup)
	for k, v := range p.Variables {
		vars[k] = v
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if t.ValidityDays > 0 {
		e := now.AddDate(0, 0, t.ValidityDays)
		expiresAt = &e
	}
	c := &domain.Contract{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(p.Name),
		TemplateID: t.ID,
		SupplierID: sup.ID,
		RawContent: t.RawContent,
		Content:    template.Render(t.RawContent, vars),
		Variables:  vars,
		Status:     domain.StatusDraft,
		ExpiresAt:  expiresAt,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
		ActivityLog: []domain.ActivityEntry{{
			Type:      domain.ActivityStatusUpdate,
			Message:   fmt.Sprintf("Contract generated from template %q", t.Name),
			ActorName: p.Actor,
			Timestamp: now,
		}},
	}
	if err := s.contracts.CreateContract(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Contract, error) {
	return s.contracts.GetContract(ctx, id)
}

func (s *Service) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	return s.contracts.ListContracts(ctx, f)
}

// Update applies draft-only edits and re-renders from the contract's own
// snapshot, never from the live template.
func (s *Service) Update(ctx context.Context, id string, upd ports.ContractUpdate, actor string) (*domain.Contract, error) {
	return s.contracts.MutateContract(ctx, id, func(c *domain.Contract) error {
		now := time.Now().UTC()
		if upd.Name != nil {
			if strings.TrimSpace(*upd.Name) == "" {
				return fmt.Errorf("%w: contract name cannot be empty", domain.ErrValidation)
			}
			if c.Frozen() {
				return fmt.Errorf("%w: contract is %s and cannot be edited", domain.ErrValidation, c.Status)
			}
			c.Name = strings.TrimSpace(*upd.Name)
			c.UpdatedAt = now
		}
		if upd.Variables != nil {
			if err := c.SetVariables(upd.Variables, now); err != nil {
				return err
			}
			c.Content = template.Render(c.RawContent, c.Variables)
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if err := c.CanDelete(); err != nil {
		return err
	}
	return s.contracts.DeleteContract(ctx, id)
}

func (s *Service) Send(ctx context.Context, id, actor string) (*domain.Contract, error) {
	return s.contracts.MutateContract(ctx, id, func(c *domain.Contract) error {
		return c.Send(actor, time.Now().UTC())
	})
}

// Sign records one party's signature through the shared state machine. Both
// sign endpoints land here, so admin and supplier get identical validation.
func (s *Service) Sign(ctx context.Context, id string, party domain.Party, sig domain.Signature, actor string) (*domain.Contract, error) {
	if sig.Date.IsZero() {
		sig.Date = time.Now().UTC()
	}
	return s.contracts.MutateContract(ctx, id, func(c *domain.Contract) error {
		return c.Sign(party, sig, actor, time.Now().UTC())
	})
}

func (s *Service) Cancel(ctx context.Context, id, actor string) (*domain.Contract, error) {
	return s.contracts.MutateContract(ctx, id, func(c *domain.Contract) error {
		return c.Cancel(actor, time.Now().UTC())
	})
}

// Download returns the frozen rendered document.
func (s *Service) Download(ctx context.Context, id string) (string, []byte, error) {
	c, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("contract_%s.html", c.ID), []byte(c.Content), nil
}

func (s *Service) Activity(ctx context.Context, id string) ([]domain.ActivityEntry, error) {
	c, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ActivityLog, nil
}
