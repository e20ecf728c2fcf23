package httpadapter

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
)

// Server wires the template, supplier and contract services onto the REST
// surface the frontend consumes.
type Server struct {
	templates ports.Templates
	suppliers ports.Suppliers
	contracts ports.Contracts
}

func New(templates ports.Templates, suppliers ports.Suppliers, contracts ports.Contracts) *Server {
	return &Server{templates: templates, suppliers: suppliers, contracts: contracts}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/templates", func(r chi.Router) {
		r.Post("/", s.uploadTemplate)
		r.Get("/", s.listTemplates)
		r.Get("/{id}", s.getTemplate)
		r.Get("/{id}/variables", s.templateVariables)
		r.Get("/{id}/download", s.downloadTemplate)
		r.Put("/{id}", s.updateTemplate)
		r.Delete("/{id}", s.deleteTemplate)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", s.createSupplier)
		r.Get("/", s.listSuppliers)
		r.Get("/{id}", s.getSupplier)
	})

	r.Route("/contracts", func(r chi.Router) {
		r.Post("/autofill", s.autofill)
		r.Post("/preview", s.preview)
		r.Post("/", s.generateContract)
		r.Get("/", s.listContracts)
		r.Get("/{id}", s.getContract)
		r.Put("/{id}", s.updateContract)
		r.Delete("/{id}", s.deleteContract)
		r.Post("/{id}/send", s.sendContract)
		r.Post("/{id}/sign", s.sign(domain.PartySupplier))
		r.Post("/{id}/sign/admin", s.sign(domain.PartyAdmin))
		r.Post("/{id}/cancel", s.cancelContract)
		r.Get("/{id}/download", s.downloadContract)
		r.Get("/{id}/activity", s.contractActivity)
	})

	return r
}

// Response shapes

func templateJSON(t *domain.Template) map[string]any {
	vars := t.Variables
	if vars == nil {
		vars = []string{}
	}
	return map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"variables":     vars,
		"validity_days": t.ValidityDays,
		"is_active":     t.IsActive,
		"created_at":    t.CreatedAt,
		"updated_at":    t.UpdatedAt,
	}
}

func supplierJSON(s *domain.Supplier) map[string]any {
	return map[string]any{
		"id":                  s.ID,
		"company_name":        s.CompanyName,
		"legal_form":          s.LegalForm,
		"registered_capital":  s.RegisteredCapital,
		"address":             s.Address,
		"postal_code":         s.PostalCode,
		"city":                s.City,
		"country":             s.Country,
		"registry_number":     s.RegistryNumber,
		"registry_city":       s.RegistryCity,
		"representative_name": s.RepresentativeName,
		"representative_role": s.RepresentativeRole,
		"email":               s.Email,
		"phone":               s.Phone,
		"created_at":          s.CreatedAt,
	}
}

func contractJSON(c *domain.Contract) map[string]any {
	return map[string]any{
		"id":                 c.ID,
		"name":               c.Name,
		"template_id":        c.TemplateID,
		"supplier_id":        c.SupplierID,
		"content":            c.Content,
		"status":             c.Status,
		"variables":          c.Variables,
		"admin_signature":    c.AdminSignature,
		"supplier_signature": c.SupplierSignature,
		"activity_log":       c.ActivityLog,
		"expires_at":         c.ExpiresAt,
		"created_at":         c.CreatedAt,
		"updated_at":         c.UpdatedAt,
	}
}

// Template handlers

func (s *Server) uploadTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err))
		return
	}
	days := 0
	if v := r.FormValue("validity_days"); v != "" {
		var err error
		if days, err = strconv.Atoi(v); err != nil {
			writeError(w, fmt.Errorf("%w: validity_days must be a number", domain.ErrValidation))
			return
		}
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: template file is required", domain.ErrValidation))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.templates.Upload(r.Context(), r.FormValue("name"), days, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, templateJSON(t))
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := s.templates.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, templateJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templateJSON(t))
}

func (s *Server) templateVariables(w http.ResponseWriter, r *http.Request) {
	vars, err := s.templates.Variables(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if vars == nil {
		vars = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": vars})
}

func (s *Server) downloadTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Name+".html"))
	_, _ = w.Write([]byte(t.RawContent))
}

func (s *Server) updateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err))
		return
	}
	var upd ports.TemplateUpdate
	if v := r.FormValue("name"); v != "" {
		upd.Name = &v
	}
	if v := r.FormValue("validity_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: validity_days must be a number", domain.ErrValidation))
			return
		}
		upd.ValidityDays = &days
	}
	if v := r.FormValue("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: is_active must be a boolean", domain.ErrValidation))
			return
		}
		upd.IsActive = &active
	}
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			writeError(w, err)
			return
		}
		upd.Content = content
	}
	t, err := s.templates.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templateJSON(t))
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "template deleted"})
}

// Supplier handlers

type supplierRequest struct {
	CompanyName        string `json:"company_name"`
	LegalForm          string `json:"legal_form"`
	RegisteredCapital  string `json:"registered_capital"`
	Address            string `json:"address"`
	PostalCode         string `json:"postal_code"`
	City               string `json:"city"`
	Country            string `json:"country"`
	RegistryNumber     string `json:"registry_number"`
	RegistryCity       string `json:"registry_city"`
	RepresentativeName string `json:"representative_name"`
	RepresentativeRole string `json:"representative_role"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
}

func (s *Server) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	sup, err := s.suppliers.Create(r.Context(), domain.Supplier{
		CompanyName:        req.CompanyName,
		LegalForm:          req.LegalForm,
		RegisteredCapital:  req.RegisteredCapital,
		Address:            req.Address,
		PostalCode:         req.PostalCode,
		City:               req.City,
		Country:            req.Country,
		RegistryNumber:     req.RegistryNumber,
		RegistryCity:       req.RegistryCity,
		RepresentativeName: req.RepresentativeName,
		RepresentativeRole: req.RepresentativeRole,
		Email:              req.Email,
		Phone:              req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplierJSON(sup))
}

func (s *Server) listSuppliers(w http.ResponseWriter, r *http.Request) {
	sups, err := s.suppliers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(sups))
	for _, sup := range sups {
		out = append(out, supplierJSON(sup))
	}
	writeJSON(w, http.StatusOK, map[string]any{"suppliers": out})
}

func (s *Server) getSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := s.suppliers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplierJSON(sup))
}

// Contract handlers

func (s *Server) autofill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string            `json:"template_id"`
		SupplierID string            `json:"supplier_id"`
		Variables  map[string]string `json:"variables"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	vars, err := s.suppliers.Autofill(r.Context(), req.TemplateID, req.SupplierID, req.Variables)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": vars})
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string            `json:"template_id"`
		Variables  map[string]string `json:"variables"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	html, err := s.contracts.Preview(r.Context(), req.TemplateID, req.Variables)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html_content": html})
}

func (s *Server) generateContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string            `json:"name"`
		TemplateID string            `json:"template_id"`
		SupplierID string            `json:"supplier_id"`
		Variables  map[string]string `json:"variables"`
		ActorName  string            `json:"actor_name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	c, err := s.contracts.Generate(r.Context(), ports.GenerateParams{
		Name:       req.Name,
		TemplateID: req.TemplateID,
		SupplierID: req.SupplierID,
		Variables:  req.Variables,
		Actor:      actorOrDefault(req.ActorName),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contractJSON(c))
}

func (s *Server) listContracts(w http.ResponseWriter, r *http.Request) {
	f := ports.ContractFilter{
		SupplierID: r.URL.Query().Get("supplier_id"),
		Status:     domain.Status(r.URL.Query().Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, f.Status))
		return
	}
	cs, err := s.contracts.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, contractJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": out})
}

func (s *Server) getContract(w http.ResponseWriter, r *http.Request) {
	c, err := s.contracts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contractJSON(c))
}

func (s *Server) updateContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      *string           `json:"name"`
		Variables map[string]string `json:"variables"`
		ActorName string            `json:"actor_name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	c, err := s.contracts.Update(r.Context(), chi.URLParam(r, "id"),
		ports.ContractUpdate{Name: req.Name, Variables: req.Variables}, actorOrDefault(req.ActorName))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contractJSON(c))
}

func (s *Server) deleteContract(w http.ResponseWriter, r *http.Request) {
	if err := s.contracts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "contract deleted"})
}

func (s *Server) sendContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActorName string `json:"actor_name"`
	}
	_ = readJSON(r, &req)
	c, err := s.contracts.Send(r.Context(), chi.URLParam(r, "id"), actorOrDefault(req.ActorName))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contractJSON(c))
}

func (s *Server) sign(party domain.Party) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Title string `json:"title"`
			Date  string `json:"date"`
		}
		if err := readJSON(r, &req); err != nil {
			writeError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
			return
		}
		sig := domain.Signature{Name: req.Name, Title: req.Title}
		if req.Date != "" {
			d, err := parseSignDate(req.Date)
			if err != nil {
				writeError(w, err)
				return
			}
			sig.Date = d
		}
		c, err := s.contracts.Sign(r.Context(), chi.URLParam(r, "id"), party, sig, req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, contractJSON(c))
	}
}

func (s *Server) cancelContract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActorName string `json:"actor_name"`
	}
	_ = readJSON(r, &req)
	c, err := s.contracts.Cancel(r.Context(), chi.URLParam(r, "id"), actorOrDefault(req.ActorName))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contractJSON(c))
}

func (s *Server) downloadContract(w http.ResponseWriter, r *http.Request) {
	filename, content, err := s.contracts.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(content)
}

func (s *Server) contractActivity(w http.ResponseWriter, r *http.Request) {
	log, err := s.contracts.Activity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if log == nil {
		log = []domain.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity_log": log})
}

func actorOrDefault(name string) string {
	if name == "" {
		return "admin"
	}
	return name
}

// parseSignDate accepts the date input formats the frontend sends.
func parseSignDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: signature date %q is not a valid date", domain.ErrValidation, s)
}
