package template

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"prismfinance/internal/domain"
)

// The binder's dictionary of known semantic keys. Placeholder names are
// matched against these case- and accent-insensitively, as exact matches
// (never substrings). Adding a mapping means adding one table row; the
// substitution logic never changes.
var knownKeys = map[string]func(*domain.Supplier) string{
	"nom_entreprise":    func(s *domain.Supplier) string { return s.CompanyName },
	"forme_juridique":   func(s *domain.Supplier) string { return s.LegalForm },
	"capital_social":    func(s *domain.Supplier) string { return s.RegisteredCapital },
	"adresse_siege":     func(s *domain.Supplier) string { return s.Address },
	"code_postal":       func(s *domain.Supplier) string { return s.PostalCode },
	"ville":             func(s *domain.Supplier) string { return s.City },
	"pays":              func(s *domain.Supplier) string { return s.Country },
	"rcs_numero":        func(s *domain.Supplier) string { return s.RegistryNumber },
	"rcs_ville":         func(s *domain.Supplier) string { return s.RegistryCity },
	"representant_nom":  func(s *domain.Supplier) string { return s.RepresentativeName },
	"representant_role": func(s *domain.Supplier) string { return s.RepresentativeRole },
	"email_contact":     func(s *domain.Supplier) string { return s.Email },
	"telephone":         func(s *domain.Supplier) string { return s.Phone },
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lower-cases and strips diacritics so "Téléphone" matches
// "telephone".
func foldKey(name string) string {
	out, _, err := transform.String(foldChain, name)
	if err != nil {
		out = name
	}
	return strings.ToLower(out)
}

// resolve returns the supplier value for a placeholder name, or "" when the
// name is not a known key or its source field is empty.
func resolve(name string, supplier *domain.Supplier) string {
	if supplier == nil {
		return ""
	}
	get, ok := knownKeys[foldKey(name)]
	if !ok {
		return ""
	}
	return get(supplier)
}

// Bind maps every placeholder name to a best-effort value from the supplier
// record. The result is always total over names: unmatched names and empty
// source fields bind to "" (a documented default, not a failure) so callers
// can render without nil checks. Pure and idempotent; supplier is never
// mutated.
func Bind(names []string, supplier *domain.Supplier) map[string]string {
	vars := make(map[string]string, len(names))
	for _, n := range names {
		vars[n] = resolve(n, supplier)
	}
	return vars
}

// Rebind recomputes the mapping against a new supplier while keeping what the
// user already typed: names the new supplier resolves are overwritten,
// everything else keeps its existing value. The result is total over names.
func Rebind(existing map[string]string, names []string, supplier *domain.Supplier) map[string]string {
	vars := make(map[string]string, len(names))
	for _, n := range names {
		if v := resolve(n, supplier); v != "" {
			vars[n] = v
			continue
		}
		vars[n] = existing[n]
	}
	return vars
}
