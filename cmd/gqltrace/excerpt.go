package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	instrument "github.com/hanpama/gqltrace/internal/instrument"
	language "github.com/hanpama/gqltrace/internal/language"
)

type excerptConfig struct {
	*rootConfig

	field       string
	operation   string
	allowValues bool
}

func (cfg *excerptConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'f',
		LongName:    "field",
		Value:       ffval.NewValue(&cfg.field),
		Usage:       "dot-separated response path of the field to excerpt, e.g. user.friends",
		Placeholder: "PATH",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'o',
		LongName:    "operation",
		Value:       ffval.NewValue(&cfg.operation),
		Usage:       "operation to search for --field when the document has several",
		Placeholder: "NAME",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:  "allow-values",
		Value:     ffval.NewValue(&cfg.allowValues),
		Usage:     "keep literal values instead of *",
		NoDefault: true,
	})
}

func (cfg *excerptConfig) Exec(ctx context.Context, args []string) error {
	src, err := cfg.readSource(args)
	if err != nil {
		return err
	}
	tokens, err := language.Tokenize(src)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	if cfg.field == "" {
		fmt.Fprintln(cfg.stdout, instrument.Excerpt(tokens, cfg.allowValues))
		return nil
	}

	doc, err := language.ParseQuery(src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	op := doc.Operations.ForName(cfg.operation)
	if op == nil {
		if cfg.operation == "" {
			return fmt.Errorf("document has %d operations, pick one with --operation", len(doc.Operations))
		}
		return fmt.Errorf("operation %q not found", cfg.operation)
	}
	field := findField(doc, op.SelectionSet, strings.Split(cfg.field, "."), map[string]bool{})
	if field == nil {
		return fmt.Errorf("field %q not found", cfg.field)
	}
	out, ok := instrument.FieldExcerpt(tokens, field.Position, cfg.allowValues)
	if !ok {
		return fmt.Errorf("field %q has no source position", cfg.field)
	}
	fmt.Fprintln(cfg.stdout, out)
	return nil
}

func (cfg *excerptConfig) readSource(args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("expected at most one FILE, got %d", len(args))
	case len(args) == 0 || args[0] == "-":
		data, err = io.ReadAll(cfg.stdin)
	default:
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	return string(data), nil
}

// findField returns the field selected under the response keys in path,
// looking through inline fragments and fragment spreads.
func findField(doc *language.QueryDocument, set language.SelectionSet, path []string, spreading map[string]bool) *language.Field {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if sel.Alias != path[0] {
				continue
			}
			if len(path) == 1 {
				return sel
			}
			if f := findField(doc, sel.SelectionSet, path[1:], spreading); f != nil {
				return f
			}
		case *language.InlineFragment:
			if f := findField(doc, sel.SelectionSet, path, spreading); f != nil {
				return f
			}
		case *language.FragmentSpread:
			def := doc.Fragments.ForName(sel.Name)
			if def == nil || spreading[sel.Name] {
				continue
			}
			spreading[sel.Name] = true
			f := findField(doc, def.SelectionSet, path, spreading)
			delete(spreading, sel.Name)
			if f != nil {
				return f
			}
		}
	}
	return nil
}
