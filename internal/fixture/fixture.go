// Package fixture serves a schema from canned YAML data. Fields read their
// value from the parent object like the executor's default resolver; a
// fixture may additionally mark fields as deferred or failing so that
// asynchronous completion and error paths can be observed without writing
// resolvers.
//
//	root:
//	  books:
//	    - {title: Dune, author: {name: Frank Herbert}}
//	deferred: [Book.author]
//	errors:
//	  Author.email: address book unavailable
//	delay: 20ms
package fixture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	executor "github.com/hanpama/gqltrace/internal/executor"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

// Fixture is the decoded content of a fixture file.
type Fixture struct {
	// Root is the root value passed to every operation.
	Root map[string]any `yaml:"root"`

	// Deferred lists "Type.field" coordinates whose values settle on another
	// goroutine after Delay.
	Deferred []string `yaml:"deferred"`

	// Errors maps "Type.field" coordinates to the message their resolver
	// fails with.
	Errors map[string]string `yaml:"errors"`

	// Delay postpones settlement of deferred fields.
	Delay time.Duration `yaml:"delay"`
}

// Load decodes a fixture. Unknown keys are rejected. An empty document yields
// an empty fixture.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if f.Delay < 0 {
		return nil, fmt.Errorf("decode fixture: negative delay %s", f.Delay)
	}
	return &f, nil
}

// LoadFile reads the fixture stored at path.
func LoadFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	f, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// RootValue returns the root value for executions. It is nil for an empty
// fixture.
func (f *Fixture) RootValue() any {
	if f.Root == nil {
		return nil
	}
	return f.Root
}

// Attach installs resolvers on the fields of sch named by the fixture. It
// fails without modifying sch if a coordinate does not name an object or
// interface field.
func (f *Fixture) Attach(sch *schema.Schema) error {
	type plan struct {
		field    *schema.Field
		message  string
		deferred bool
	}
	plans := map[string]*plan{}
	lookup := func(coord string) (*plan, error) {
		if p, ok := plans[coord]; ok {
			return p, nil
		}
		field, err := fieldAt(sch, coord)
		if err != nil {
			return nil, err
		}
		p := &plan{field: field}
		plans[coord] = p
		return p, nil
	}
	for _, coord := range f.Deferred {
		p, err := lookup(coord)
		if err != nil {
			return err
		}
		p.deferred = true
	}
	for coord, msg := range f.Errors {
		p, err := lookup(coord)
		if err != nil {
			return err
		}
		p.message = msg
	}

	coords := make([]string, 0, len(plans))
	for coord := range plans {
		coords = append(coords, coord)
	}
	sort.Strings(coords)
	for _, coord := range coords {
		p := plans[coord]
		fn := p.field.Resolve
		if fn == nil {
			fn = executor.DefaultFieldResolver
		}
		if p.message != "" {
			fn = fail(p.message)
		}
		if p.deferred {
			fn = deferred(fn, f.Delay)
		}
		p.field.Resolve = fn
	}
	return nil
}

func fieldAt(sch *schema.Schema, coord string) (*schema.Field, error) {
	typeName, fieldName, ok := strings.Cut(coord, ".")
	if !ok || typeName == "" || fieldName == "" {
		return nil, fmt.Errorf("fixture: malformed field coordinate %q", coord)
	}
	t := sch.Types[typeName]
	if t == nil || (t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface) {
		return nil, fmt.Errorf("fixture: %s is not an object or interface type", typeName)
	}
	field := t.FieldByName(fieldName)
	if field == nil {
		return nil, fmt.Errorf("fixture: type %s has no field %s", typeName, fieldName)
	}
	return field, nil
}

func fail(message string) schema.FieldResolveFn {
	return func(schema.ResolveParams) (any, error) {
		return nil, errors.New(message)
	}
}

// deferred runs fn on another goroutine after delay and settles the returned
// value with its outcome.
func deferred(fn schema.FieldResolveFn, delay time.Duration) schema.FieldResolveFn {
	return func(p schema.ResolveParams) (any, error) {
		d := schema.NewDeferred()
		go func() {
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-timer.C:
				case <-p.Context.Done():
					d.Reject(p.Context.Err())
					return
				}
			}
			v, err := fn(p)
			if err != nil {
				d.Reject(err)
				return
			}
			if inner, ok := v.(*schema.Deferred); ok {
				inner.Then(func(v any, err error) {
					if err != nil {
						d.Reject(err)
						return
					}
					d.Resolve(v)
				})
				return
			}
			d.Resolve(v)
		}()
		return d, nil
	}
}
