package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Types and directives are sorted by
// name; built-in definitions and introspection types are omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{}

	typeNames := make([]string, 0, len(s.Types))
	for name, typ := range s.Types {
		if !typ.BuiltIn && !strings.HasPrefix(name, "__") {
			typeNames = append(typeNames, name)
		}
	}
	sort.Strings(typeNames)
	for _, name := range typeNames {
		w.typeDef(s.Types[name])
	}

	directiveNames := make([]string, 0, len(s.Directives))
	for name, directive := range s.Directives {
		if !directive.BuiltIn {
			directiveNames = append(directiveNames, name)
		}
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		w.directiveDef(s.Directives[name])
	}

	return strings.TrimRight(w.String(), "\n") + "\n"
}

type sdlWriter struct {
	strings.Builder
}

func (w *sdlWriter) typeDef(typ *Type) {
	w.description(typ.Description)
	switch typ.Kind {
	case TypeKindScalar:
		w.WriteString("scalar " + typ.Name)
		if typ.SpecifiedByURL != nil {
			w.WriteString(` @specifiedBy(url: "` + *typ.SpecifiedByURL + `")`)
		}
		w.WriteString("\n\n")
	case TypeKindEnum:
		w.WriteString("enum " + typ.Name + " {\n")
		for _, val := range typ.EnumValues {
			w.description(val.Description)
			w.WriteString("  " + val.Name)
			w.deprecated(val.IsDeprecated, val.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")
	case TypeKindInputObject:
		w.WriteString("input " + typ.Name)
		if typ.OneOf {
			w.WriteString(" @oneOf")
		}
		w.WriteString(" {\n")
		for _, field := range typ.InputFields {
			w.description(field.Description)
			w.WriteString("  ")
			w.inputValue(field)
			w.deprecated(field.IsDeprecated, field.DeprecationReason)
			w.WriteString("\n")
		}
		w.WriteString("}\n\n")
	case TypeKindObject, TypeKindInterface:
		keyword := "type "
		if typ.Kind == TypeKindInterface {
			keyword = "interface "
		}
		w.WriteString(keyword + typ.Name)
		if len(typ.Interfaces) > 0 {
			w.WriteString(" implements " + strings.Join(typ.Interfaces, " & "))
		}
		w.WriteString(" {\n")
		for _, field := range typ.Fields {
			w.field(field)
		}
		w.WriteString("}\n\n")
	case TypeKindUnion:
		w.WriteString("union " + typ.Name + " = " + strings.Join(typ.PossibleTypes, " | ") + "\n\n")
	}
}

func (w *sdlWriter) field(field *Field) {
	w.description(field.Description)
	w.WriteString("  " + field.Name)
	w.arguments(field.Arguments)
	w.WriteString(": " + renderTypeRef(field.Type))
	w.deprecated(field.IsDeprecated, field.DeprecationReason)
	w.WriteString("\n")
}

func (w *sdlWriter) directiveDef(directive *Directive) {
	w.description(directive.Description)
	w.WriteString("directive @" + directive.Name)
	w.arguments(directive.Arguments)
	if directive.IsRepeatable {
		w.WriteString(" repeatable")
	}
	w.WriteString(" on " + strings.Join(directive.Locations, " | ") + "\n\n")
}

func (w *sdlWriter) arguments(args []*InputValue) {
	if len(args) == 0 {
		return
	}
	w.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			w.WriteString(", ")
		}
		w.inputValue(arg)
	}
	w.WriteString(")")
}

func (w *sdlWriter) inputValue(v *InputValue) {
	w.WriteString(v.Name + ": " + renderTypeRef(v.Type))
	if v.DefaultValue != nil {
		w.WriteString(" = " + renderValue(v.DefaultValue))
	}
}

func (w *sdlWriter) description(desc string) {
	if desc == "" {
		return
	}
	w.WriteString("\"\"\"\n" + strings.ReplaceAll(desc, `"`, `\"`) + "\n\"\"\"\n")
}

func (w *sdlWriter) deprecated(isDeprecated bool, reason string) {
	if !isDeprecated {
		return
	}
	w.WriteString(" @deprecated")
	if reason != "" {
		w.WriteString(`(reason: "` + reason + `")`)
	}
}

func renderTypeRef(typeRef *TypeRef) string {
	return typeRef.String()
}

// renderValue renders a default or argument value as a GraphQL literal.
// Strings that are not Go strings (enum values) are printed bare.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}
