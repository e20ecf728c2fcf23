package contracts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
)

// memStore is an in-memory stand-in for the postgres adapter. MutateContract
// applies fn to a copy under the lock so a rejected mutation leaves the stored
// contract untouched, matching the transactional behaviour.
type memStore struct {
	mu        sync.Mutex
	templates map[string]*domain.Template
	suppliers map[string]*domain.Supplier
	contracts map[string]*domain.Contract
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[string]*domain.Template),
		suppliers: make(map[string]*domain.Supplier),
		contracts: make(map[string]*domain.Contract),
	}
}

func (m *memStore) CreateTemplate(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) GetTemplate(_ context.Context, id string) (*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ListTemplates(_ context.Context) ([]*domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Template
	for _, t := range m.templates {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpdateTemplate(_ context.Context, t *domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return domain.ErrNotFound
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *memStore) TemplateInUse(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contracts {
		if c.TemplateID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateSupplier(_ context.Context, s *domain.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[s.ID] = s
	return nil
}

func (m *memStore) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListSuppliers(_ context.Context) ([]*domain.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Supplier
	for _, s := range m.suppliers {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func copyContract(c *domain.Contract) *domain.Contract {
	cp := *c
	cp.Variables = make(map[string]string, len(c.Variables))
	for k, v := range c.Variables {
		cp.Variables[k] = v
	}
	cp.ActivityLog = append([]domain.ActivityEntry(nil), c.ActivityLog...)
	if c.AdminSignature != nil {
		sig := *c.AdminSignature
		cp.AdminSignature = &sig
	}
	if c.SupplierSignature != nil {
		sig := *c.SupplierSignature
		cp.SupplierSignature = &sig
	}
	return &cp
}

func (m *memStore) CreateContract(_ context.Context, c *domain.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = copyContract(c)
	return nil
}

func (m *memStore) GetContract(_ context.Context, id string) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyContract(c), nil
}

func (m *memStore) ListContracts(_ context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Contract
	for _, c := range m.contracts {
		if f.SupplierID != "" && c.SupplierID != f.SupplierID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, copyContract(c))
	}
	return out, nil
}

func (m *memStore) DeleteContract(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contracts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != domain.StatusDraft {
		return domain.ErrInvalidStateForDeletion
	}
	delete(m.contracts, id)
	return nil
}

func (m *memStore) MutateContract(_ context.Context, id string, fn func(*domain.Contract) error) (*domain.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.contracts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyContract(stored)
	if err := fn(c); err != nil {
		return nil, err
	}
	c.Version++
	m.contracts[id] = copyContract(c)
	return c, nil
}

func (m *memStore) ListOverdue(_ context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, c := range m.contracts {
		if c.Status.Terminal() || c.ExpiresAt == nil || c.ExpiresAt.After(now) {
			continue
		}
		ids = append(ids, c.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

const rawTemplate = "Contract between PRISM and {{nom_entreprise}}, {{forme_juridique}} " +
	"based in {{ville}}. Special terms: {{conditions_particulieres}}."

func fixture(t *testing.T) (*Service, *memStore, *domain.Template, *domain.Supplier) {
	t.Helper()
	store := newMemStore()
	tpl := &domain.Template{
		ID:           "tpl-1",
		Name:         "Service agreement",
		RawContent:   rawTemplate,
		Variables:    []string{"nom_entreprise", "forme_juridique", "ville", "conditions_particulieres"},
		ValidityDays: 30,
		IsActive:     true,
	}
	sup := &domain.Supplier{
		ID:          "sup-1",
		CompanyName: "Acme SAS",
		LegalForm:   "SAS",
		City:        "Paris",
		Email:       "contact@acme.fr",
	}
	store.templates[tpl.ID] = tpl
	store.suppliers[sup.ID] = sup
	return New(store, store, store), store, tpl, sup
}

func generate(t *testing.T, svc *Service, vars map[string]string) *domain.Contract {
	t.Helper()
	c, err := svc.Generate(context.Background(), ports.GenerateParams{
		Name:       "Acme service agreement",
		TemplateID: "tpl-1",
		SupplierID: "sup-1",
		Variables:  vars,
		Actor:      "admin",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	svc, _, tpl, _ := fixture(t)
	c := generate(t, svc, map[string]string{"conditions_particulieres": "net 30 days"})

	if c.Status != domain.StatusDraft {
		t.Errorf("status = %s, want draft", c.Status)
	}
	for _, name := range tpl.Variables {
		if _, ok := c.Variables[name]; !ok {
			t.Errorf("variable %q missing from snapshot", name)
		}
	}
	if c.Variables["nom_entreprise"] != "Acme SAS" {
		t.Errorf("autofill missed: %v", c.Variables)
	}
	if c.Variables["conditions_particulieres"] != "net 30 days" {
		t.Errorf("caller value lost: %v", c.Variables)
	}
	if !strings.Contains(c.Content, "Acme SAS") || strings.Contains(c.Content, "{{nom_entreprise}}") {
		t.Errorf("rendered content wrong: %q", c.Content)
	}
	if c.ExpiresAt == nil {
		t.Error("expected an expiry deadline from validity_days")
	}
	if len(c.ActivityLog) != 1 || c.ActivityLog[0].Type != domain.ActivityStatusUpdate {
		t.Errorf("activity log = %+v", c.ActivityLog)
	}
}

func TestGenerateValidation(t *testing.T) {
	svc, store, tpl, _ := fixture(t)

	_, err := svc.Generate(context.Background(), ports.GenerateParams{TemplateID: "tpl-1", SupplierID: "sup-1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing name error = %v, want ErrValidation", err)
	}

	_, err = svc.Generate(context.Background(), ports.GenerateParams{Name: "x", TemplateID: "nope", SupplierID: "sup-1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown template error = %v, want ErrNotFound", err)
	}

	tpl.IsActive = false
	store.templates[tpl.ID] = tpl
	_, err = svc.Generate(context.Background(), ports.GenerateParams{Name: "x", TemplateID: "tpl-1", SupplierID: "sup-1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("inactive template error = %v, want ErrValidation", err)
	}
}

func TestContractIsolatedFromTemplateEdits(t *testing.T) {
	svc, store, tpl, _ := fixture(t)
	c := generate(t, svc, nil)

	tpl.RawContent = "Completely different {{nom_entreprise}} text"
	store.templates[tpl.ID] = tpl

	updated, err := svc.Update(context.Background(), c.ID,
		ports.ContractUpdate{Variables: map[string]string{"conditions_particulieres": "changed"}}, "admin")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if strings.Contains(updated.Content, "Completely different") {
		t.Error("draft edit picked up the live template instead of the snapshot")
	}
	if !strings.Contains(updated.Content, "changed") {
		t.Errorf("variable edit not re-rendered: %q", updated.Content)
	}
}

func TestUpdateFrozenAfterSend(t *testing.T) {
	svc, _, _, _ := fixture(t)
	c := generate(t, svc, nil)
	if _, err := svc.Send(context.Background(), c.ID, "admin"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	name := "renamed"
	if _, err := svc.Update(context.Background(), c.ID, ports.ContractUpdate{Name: &name}, "admin"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("rename after send error = %v, want ErrValidation", err)
	}
	_, err := svc.Update(context.Background(), c.ID,
		ports.ContractUpdate{Variables: map[string]string{"ville": "Lyon"}}, "admin")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("variable edit after send error = %v, want ErrValidation", err)
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Variables["ville"] != "Paris" {
		t.Errorf("frozen variables changed: %v", got.Variables)
	}
}

func TestSignLifecycle(t *testing.T) {
	svc, _, _, _ := fixture(t)
	c := generate(t, svc, nil)
	ctx := context.Background()

	if _, err := svc.Send(ctx, c.ID, "admin"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := svc.Sign(ctx, c.ID, domain.PartySupplier, domain.Signature{Name: "Jean Dupont", Title: "CEO"}, "Jean Dupont"); err != nil {
		t.Fatalf("supplier Sign: %v", err)
	}
	signed, err := svc.Sign(ctx, c.ID, domain.PartyAdmin, domain.Signature{Name: "Admin"}, "Admin")
	if err != nil {
		t.Fatalf("admin Sign: %v", err)
	}
	if signed.Status != domain.StatusSigned {
		t.Errorf("status = %s, want signed", signed.Status)
	}
	if signed.SupplierSignature == nil || signed.SupplierSignature.Date.IsZero() {
		t.Error("signature date should default to signing time")
	}

	if _, err := svc.Sign(ctx, c.ID, domain.PartyAdmin, domain.Signature{Name: "Admin"}, "Admin"); !errors.Is(err, domain.ErrContractAlreadyFinal) {
		t.Errorf("sign after signed error = %v, want ErrContractAlreadyFinal", err)
	}
}

func TestConcurrentSameSideSigns(t *testing.T) {
	svc, _, _, _ := fixture(t)
	c := generate(t, svc, nil)
	ctx := context.Background()
	if _, err := svc.Send(ctx, c.ID, "admin"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Sign(ctx, c.ID, domain.PartySupplier, domain.Signature{Name: "Jean"}, "Jean")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrAlreadySigned):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != attempts-1 {
		t.Errorf("succeeded = %d, conflicted = %d; want exactly one success", succeeded, conflicted)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _, _ := fixture(t)
	ctx := context.Background()

	c := generate(t, svc, nil)
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Errorf("delete draft: %v", err)
	}

	c = generate(t, svc, nil)
	if _, err := svc.Send(ctx, c.ID, "admin"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := svc.Delete(ctx, c.ID); !errors.Is(err, domain.ErrInvalidStateForDeletion) {
		t.Errorf("delete after send error = %v, want ErrInvalidStateForDeletion", err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, store, _, _ := fixture(t)
	html, err := svc.Preview(context.Background(), "tpl-1", map[string]string{"nom_entreprise": "Acme SAS"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(html, "Acme SAS") {
		t.Errorf("preview not rendered: %q", html)
	}
	if !strings.Contains(html, "{{ville}}") {
		t.Errorf("unbound placeholder should stay literal: %q", html)
	}
	if len(store.contracts) != 0 {
		t.Errorf("preview persisted %d contracts", len(store.contracts))
	}
}

func TestDownload(t *testing.T) {
	svc, _, _, _ := fixture(t)
	c := generate(t, svc, nil)
	name, content, err := svc.Download(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if name != "contract_"+c.ID+".html" {
		t.Errorf("filename = %q", name)
	}
	if string(content) != c.Content {
		t.Errorf("download content differs from rendered snapshot")
	}
}
