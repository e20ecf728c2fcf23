package template

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		vars map[string]string
		want string
	}{
		{
			"simple substitution",
			"Dear {{client_name}},",
			map[string]string{"client_name": "Acme"},
			"Dear Acme,",
		},
		{
			"unbound placeholder left literal",
			"Signed in {{ville}} on {{date_signature}}",
			map[string]string{"ville": "Paris"},
			"Signed in Paris on {{date_signature}}",
		},
		{
			"every occurrence replaced",
			"{{a}} and {{a}} and {{ a }}",
			map[string]string{"a": "x"},
			"x and x and x",
		},
		{
			"empty value is a substitution",
			"[{{capital_social}}]",
			map[string]string{"capital_social": ""},
			"[]",
		},
		{
			"malformed token untouched",
			"{{not closed and {{client-name}}",
			map[string]string{"client": "x"},
			"{{not closed and {{client-name}}",
		},
		{
			"no placeholders",
			"plain text",
			map[string]string{"a": "x"},
			"plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.raw, tt.vars)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRenderDeterministic(t *testing.T) {
	raw := "{{nom_entreprise}} — {{ville}} — {{nom_entreprise}}"
	vars := map[string]string{"nom_entreprise": "Acme", "ville": "Lyon"}
	first := Render(raw, vars)
	for i := 0; i < 5; i++ {
		if got := Render(raw, vars); got != first {
			t.Fatalf("Render not deterministic: %q vs %q", got, first)
		}
	}
}
