package templates

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

// Service manages uploaded contract templates. Extraction runs once at upload
// (and again when the file is replaced); the derived variable list is never
// edited by hand.
type Service struct {
	repo ports.TemplateRepository
}

func New(repo ports.TemplateRepository) *Service { return &Service{repo: repo} }

func (s *Service) Upload(ctx context.Context, name string, validityDays int, content []byte) (*domain.Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: template name is required", domain.ErrValidation)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: template file is required", domain.ErrValidation)
	}
	if validityDays < 0 {
		return nil, fmt.Errorf("%w: validity period cannot be negative", domain.ErrValidation)
	}
	raw := string(content)
	vars, err := template.Extract(raw)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Template{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		RawContent:   raw,
		Variables:    vars,
		ValidityDays: validityDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Template, error) {
	return s.repo.ListTemplates(ctx)
}

func (s *Service) Variables(ctx context.Context, id string) ([]string, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.Variables, nil
}

func (s *Service) Update(ctx context.Context, id string, upd ports.TemplateUpdate) (*domain.Template, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: template name cannot be empty", domain.ErrValidation)
		}
		t.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.ValidityDays != nil {
		if *upd.ValidityDays < 0 {
			return nil, fmt.Errorf("%w: validity period cannot be negative", domain.ErrValidation)
		}
		t.ValidityDays = *upd.ValidityDays
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}
	if upd.Content != nil {
		raw := string(upd.Content)
		vars, err := template.Extract(raw)
		if err != nil {
			return nil, err
		}
		t.RawContent = raw
		t.Variables = vars
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template. Templates referenced by contracts are kept for
// the contracts' snapshots; deactivating them blocks new generation instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	inUse, err := s.repo.TemplateInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: template is referenced by contracts, deactivate it instead", domain.ErrValidation)
	}
	return s.repo.DeleteTemplate(ctx, id)
}
