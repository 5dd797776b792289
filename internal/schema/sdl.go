package schema

import (
	"fmt"

	"github.com/hanpama/gqltrace/internal/language"
	"github.com/vektah/gqlparser/v2/ast"
)

// BuildFromSDL loads SDL on top of the GraphQL prelude and builds the
// executable schema from it. name labels the source in error messages.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	doc, err := language.LoadSchema(name, sdl)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	return BuildFromAST(doc), nil
}

// BuildFromAST converts a validated gqlparser schema. Field and argument
// order follows the source document.
func BuildFromAST(doc *ast.Schema) *Schema {
	s := NewSchema(doc.Description)
	s.AST = doc
	if doc.Query != nil {
		s.SetQueryType(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.SetMutationType(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.SetSubscriptionType(doc.Subscription.Name)
	}
	for _, def := range doc.Types {
		s.AddType(buildType(doc, def))
	}
	for _, dir := range doc.Directives {
		s.AddDirective(buildDirective(dir))
	}
	return s
}

func buildType(doc *ast.Schema, def *ast.Definition) *Type {
	var t *Type
	switch def.Kind {
	case ast.Object:
		t = NewType(def.Name, TypeKindObject, def.Description)
	case ast.Interface:
		t = NewType(def.Name, TypeKindInterface, def.Description)
		for _, impl := range doc.PossibleTypes[def.Name] {
			t.AddPossibleType(impl.Name)
		}
	case ast.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case ast.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
		for _, v := range def.EnumValues {
			ev := NewEnumValue(v.Name, v.Description)
			if reason, ok := deprecation(v.Directives); ok {
				ev.Deprecate(reason)
			}
			t.AddEnumValue(ev)
		}
	case ast.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description)
		t.SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, f := range def.Fields {
			in := NewInputValue(f.Name, f.Description, buildTypeRef(f.Type)).SetDefault(constValue(f.DefaultValue))
			if reason, ok := deprecation(f.Directives); ok {
				in.Deprecate(reason)
			}
			t.AddInputField(in)
		}
	default:
		t = NewType(def.Name, TypeKindScalar, def.Description)
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SetSpecifiedByURL(arg.Value.Raw)
			}
		}
	}
	t.BuiltIn = def.BuiltIn

	if def.Kind == ast.Object || def.Kind == ast.Interface {
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, f := range def.Fields {
			// Meta fields are served by the executor and introspection.
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			t.AddField(buildField(f))
		}
	}
	return t
}

func buildField(def *ast.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		in := NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type)).SetDefault(constValue(arg.DefaultValue))
		if reason, ok := deprecation(arg.Directives); ok {
			in.Deprecate(reason)
		}
		f.AddArgument(in)
	}
	return f
}

func buildDirective(def *ast.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type)).SetDefault(constValue(arg.DefaultValue)))
	}
	d.BuiltIn = def.Position != nil && def.Position.Src != nil && def.Position.Src.BuiltIn
	return d
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

func deprecation(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}

func constValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	out, err := v.Value(nil)
	if err != nil {
		return v.Raw
	}
	return out
}
