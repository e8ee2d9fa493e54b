// Package validator checks a decoded bot graph before compilation.
// Every problem is reported as a diagnostic; validation never stops a build.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/go-playground/validator/v10"
)

// Validator checks graphs against the struct rules declared on the domain types.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. It is safe for concurrent use.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateGraph runs the default validator.
func ValidateGraph(g *domain.Graph) domain.Diagnostics {
	return New().Validate(g)
}

// Validate reports malformed nodes, unknown node types and a missing entry point.
func (v *Validator) Validate(g *domain.Graph) domain.Diagnostics {
	if g == nil || len(g.Nodes) == 0 {
		return domain.Diagnostics{{
			Severity: domain.SeverityError,
			Kind:     domain.DiagInvalidNode,
			Message:  domain.ErrEmptyGraph.Error(),
		}}
	}

	var diags domain.Diagnostics
	entry := false
	for i := range g.Nodes {
		n := &g.Nodes[i]
		diags = append(diags, v.node(n)...)
		if t := domain.TriggerOf(n); t != nil && t.CommandName() != "" {
			entry = true
		}
	}
	if !entry {
		diags = append(diags, domain.Diagnostic{
			Severity: domain.SeverityWarning,
			Kind:     domain.DiagInvalidNode,
			Message:  "graph has no command node; the bot cannot be started",
		})
	}
	return diags
}

func (v *Validator) node(n *domain.Node) domain.Diagnostics {
	invalid := func(sev domain.Severity, format string, args ...any) domain.Diagnostic {
		return domain.Diagnostic{Severity: sev, Kind: domain.DiagInvalidNode, NodeID: n.ID, Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(n.ID) == "" {
		return domain.Diagnostics{invalid(domain.SeverityError, "node of type %q has no id", n.Type)}
	}
	if !n.Type.Valid() {
		return domain.Diagnostics{invalid(domain.SeverityError, "%v: %q", domain.ErrUnknownNodeType, n.Type)}
	}
	if n.DecodeErr != nil {
		return domain.Diagnostics{invalid(domain.SeverityError, "cannot decode data: %v", n.DecodeErr)}
	}
	if n.Data == nil {
		return nil
	}

	err := v.validate.Struct(n.Data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Diagnostics{invalid(domain.SeverityError, "%v", err)}
	}
	var out domain.Diagnostics
	for _, fe := range verrs {
		out = append(out, invalid(domain.SeverityWarning, "%s", describe(fe)))
	}
	return out
}

// describe turns a field error into a sentence naming the JSON path.
func describe(fe validator.FieldError) string {
	field := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed the %q rule", field, fe.Tag())
}

// jsonPath drops the Go type and embedded struct names from a namespace,
// keeping the JSON field names.
func jsonPath(namespace string) string {
	var parts []string
	for _, p := range strings.Split(namespace, ".") {
		if p == "" || unicode.IsUpper(rune(p[0])) {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ".")
}
