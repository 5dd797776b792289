package main

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	introspection "github.com/hanpama/gqltrace/internal/introspection"
	schema "github.com/hanpama/gqltrace/internal/schema"
)

type printSchemaConfig struct {
	*rootConfig

	schemaPath    string
	introspection bool
}

func (cfg *printSchemaConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   's',
		LongName:    "schema",
		Value:       ffval.NewValue(&cfg.schemaPath),
		Usage:       "GraphQL SDL file",
		Placeholder: "FILE",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:  "introspection",
		Value:     ffval.NewValue(&cfg.introspection),
		Usage:     "include the __schema and __type query fields",
		NoDefault: true,
	})
}

func (cfg *printSchemaConfig) Exec(ctx context.Context, args []string) error {
	sch, err := loadSchema(cfg.schemaPath)
	if err != nil {
		return err
	}
	if cfg.introspection {
		sch = introspection.Extend(sch)
	}
	fmt.Fprint(cfg.stdout, schema.Render(sch))
	return nil
}
