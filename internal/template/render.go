package template

import "strings"

// Render substitutes every placeholder occurrence whose name is present in
// vars; placeholders not present in the mapping are left literally unreplaced,
// which guards against templates edited after a contract froze its mapping.
// Deterministic and side-effect-free, so previews can call it repeatedly.
func Render(rawContent string, vars map[string]string) string {
	var b strings.Builder
	b.Grow(len(rawContent))
	i := 0
	for i < len(rawContent) {
		if rawContent[i] != '{' || i+1 >= len(rawContent) || rawContent[i+1] != '{' {
			b.WriteByte(rawContent[i])
			i++
			continue
		}
		name, end, ok := parsePlaceholder(rawContent, i)
		if !ok {
			b.WriteByte(rawContent[i])
			i++
			continue
		}
		if v, bound := vars[name]; bound {
			b.WriteString(v)
		} else {
			b.WriteString(rawContent[i:end])
		}
		i = end
	}
	return b.String()
}
