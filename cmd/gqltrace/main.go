// gqltrace serves a GraphQL schema with resolver tracing and inspects query
// source excerpts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	config "github.com/hanpama/gqltrace/internal/config"
)

func main() {
	var (
		ctx    = context.Background()
		stdin  = os.Stdin
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdin, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) (err error) {
	root := &rootConfig{stdin: stdin, stdout: stdout, stderr: stderr}
	rootFlags := ff.NewFlagSet("gqltrace")
	root.register(rootFlags)

	rootCommand := &ff.Command{
		Name:      "gqltrace",
		Usage:     "gqltrace [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "trace GraphQL resolvers with OpenTelemetry",
		Flags:     rootFlags,
	}

	serve := &serveConfig{rootConfig: root}
	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	serve.register(serveFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "serve",
		Usage:     "gqltrace serve --schema FILE [--data FILE] [FLAGS]",
		ShortHelp: "serve a schema over HTTP with resolver spans",
		LongHelp:  "Serve the schema at /graphql. Field values come from the YAML fixture given with --data. Send SIGHUP to re-read the [trace] table of --config.",
		Flags:     serveFlags,
		Exec:      serve.Exec,
	})

	excerpt := &excerptConfig{rootConfig: root}
	excerptFlags := ff.NewFlagSet("excerpt").SetParent(rootFlags)
	excerpt.register(excerptFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "excerpt",
		Usage:     "gqltrace excerpt [--field PATH] [--allow-values] [FILE]",
		ShortHelp: "print the source excerpt recorded for a query or one of its fields",
		LongHelp:  "Read a query document from FILE, or stdin when FILE is absent or -, and print it as span attributes carry it.",
		Flags:     excerptFlags,
		Exec:      excerpt.Exec,
	})

	printSchema := &printSchemaConfig{rootConfig: root}
	printSchemaFlags := ff.NewFlagSet("print-schema").SetParent(rootFlags)
	printSchema.register(printSchemaFlags)
	rootCommand.Subcommands = append(rootCommand.Subcommands, &ff.Command{
		Name:      "print-schema",
		Usage:     "gqltrace print-schema --schema FILE",
		ShortHelp: "load and validate a schema, then print it as SDL",
		Flags:     printSchemaFlags,
		Exec:      printSchema.Exec,
	})

	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	if err := rootCommand.Parse(args,
		ff.WithEnvVarPrefix("GQLTRACE"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(config.Parse),
		ff.WithConfigIgnoreUndefinedFlags(),
	); err != nil {
		return err
	}

	if err := root.setup(); err != nil {
		return err
	}

	showHelp = false
	return rootCommand.Run(ctx)
}
