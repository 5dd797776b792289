package executor

import (
	"context"
	"reflect"
	"strings"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// DefaultFieldResolver reads the field from the source value. Maps are looked
// up by field name. Structs expose an exported field whose name or json tag
// matches, or a method of the same name taking no arguments or a
// context.Context and returning a value and optionally an error.
func DefaultFieldResolver(p schema.ResolveParams) (any, error) {
	name := p.Info.FieldName
	if m, ok := p.Source.(map[string]any); ok {
		return m[name], nil
	}
	if p.Source == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(p.Source)
	if method, ok := findMethod(rv, name); ok {
		return callMethod(p.Context, method)
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if tag == name || (tag == "" && strings.EqualFold(sf.Name, name)) {
				return rv.Field(i).Interface(), nil
			}
		}
	}
	return nil, nil
}

func findMethod(rv reflect.Value, name string) (reflect.Value, bool) {
	if name == "" {
		return reflect.Value{}, false
	}
	m := rv.MethodByName(strings.ToUpper(name[:1]) + name[1:])
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	mt := m.Type()
	switch mt.NumIn() {
	case 0:
	case 1:
		if mt.In(0) != contextType {
			return reflect.Value{}, false
		}
	default:
		return reflect.Value{}, false
	}
	switch mt.NumOut() {
	case 1:
	case 2:
		if mt.Out(1) != errorType {
			return reflect.Value{}, false
		}
	default:
		return reflect.Value{}, false
	}
	return m, true
}

func callMethod(ctx context.Context, m reflect.Value) (any, error) {
	var in []reflect.Value
	if m.Type().NumIn() == 1 {
		if ctx == nil {
			ctx = context.Background()
		}
		in = []reflect.Value{reflect.ValueOf(ctx)}
	}
	out := m.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
