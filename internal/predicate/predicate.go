// Package predicate turns footprint filter text into an executable match
// against footprint catalog records.
package predicate

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/geomosaic/footprint/internal/footprint"
)

// Predicate decides whether a catalog record belongs to a granule. rec holds
// the record's attributes by field name.
type Predicate interface {
	Matches(rec map[string]any, granule footprint.GranuleRef) (bool, error)
}

// LocationEquals matches records whose field equals the granule location.
// It is the implicit join between mosaic granules and footprint records and
// the default when no filter text is configured.
type LocationEquals struct {
	Field string
}

func (p LocationEquals) Matches(rec map[string]any, granule footprint.GranuleRef) (bool, error) {
	v, ok := rec[p.Field]
	if !ok {
		return false, nil
	}
	s, ok := v.(string)
	if !ok {
		return false, fmt.Errorf("field %q is %T, want string", p.Field, v)
	}
	return s == granule.Location, nil
}

func (p LocationEquals) String() string {
	return fmt.Sprintf("%s = granule.location", p.Field)
}

type exprPredicate struct {
	text    string
	program *exprvm.Program
}

// Parse compiles filter text into a Predicate. The expression sees the
// record's attributes as top level variables and the granule under
// "granule" (e.g. `id == 3` or `location == granule.location`).
func Parse(text string) (Predicate, error) {
	program, err := exprlang.Compile(text,
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", text, err)
	}
	return &exprPredicate{text: text, program: program}, nil
}

func (p *exprPredicate) Matches(rec map[string]any, granule footprint.GranuleRef) (bool, error) {
	env := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		env[k] = v
	}
	env["granule"] = map[string]any{"location": granule.Location}

	out, err := exprlang.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", p.text, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", p.text, out)
	}
	return b, nil
}

func (p *exprPredicate) String() string { return p.text }
