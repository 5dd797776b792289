// Package config reads gqltrace configuration files. Files are TOML; tables
// flatten into dash-joined flag names, so
//
//	listen = ":8080"
//
//	[trace]
//	depth = 3
//
// sets --listen and --trace-depth. The [trace] table can also be re-read at
// run time to change what the instrumentation records.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"

	instrument "github.com/hanpama/gqltrace/internal/instrument"
)

// Parse decodes a TOML document and calls set once per scalar value, and
// once per element of an array. It has the signature ff expects of a config
// file parser.
func Parse(r io.Reader, set func(name, value string) error) error {
	var doc map[string]any
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("parse toml: %w", err)
	}
	return flatten("", doc, set)
}

func flatten(prefix string, table map[string]any, set func(name, value string) error) error {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "-" + k
		}
		switch v := table[k].(type) {
		case map[string]any:
			if err := flatten(name, v, set); err != nil {
				return err
			}
		case []map[string]any:
			return fmt.Errorf("%s: arrays of tables are not supported", name)
		case []any:
			for _, elem := range v {
				s, err := scalar(name, elem)
				if err != nil {
					return err
				}
				if err := set(name, s); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
		default:
			s, err := scalar(name, v)
			if err != nil {
				return err
			}
			if err := set(name, s); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func scalar(name string, v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("%s: unsupported value of type %T", name, v)
	}
}

// Trace is the [trace] table.
type Trace struct {
	Enabled       bool `toml:"enabled"`
	AllowValues   bool `toml:"allow-values"`
	Depth         int  `toml:"depth"`
	MergeItems    bool `toml:"merge-items"`
	IgnoreTrivial bool `toml:"ignore-trivial"`
	IgnoreResolve bool `toml:"ignore-resolve"`
}

// DefaultTrace mirrors instrument.DefaultConfig.
func DefaultTrace() Trace {
	return Trace{Enabled: true, Depth: -1}
}

// Instrument converts t to an instrumentation config.
func (t Trace) Instrument() instrument.Config {
	return instrument.Config{
		Enabled:                   t.Enabled,
		AllowValues:               t.AllowValues,
		Depth:                     t.Depth,
		MergeItems:                t.MergeItems,
		IgnoreTrivialResolveSpans: t.IgnoreTrivial,
		IgnoreResolveSpans:        t.IgnoreResolve,
	}
}

// ErrUnknownKey is wrapped by ReadTrace errors for keys Trace does not define.
var ErrUnknownKey = errors.New("unknown key")

// ReadTrace decodes the [trace] table of the file at path on top of base.
// Keys missing from the file keep their value in base.
func ReadTrace(path string, base Trace) (Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	doc := struct {
		Trace toml.Primitive `toml:"trace"`
	}{}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	if !md.IsDefined("trace") {
		return base, nil
	}
	out := base
	if err := md.PrimitiveDecode(doc.Trace, &out); err != nil {
		return base, fmt.Errorf("%s: [trace]: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		if len(key) > 1 && key[0] == "trace" {
			return base, fmt.Errorf("%s: %w %s", path, ErrUnknownKey, key)
		}
	}
	return out, nil
}

// Live holds an instrumentation config that may be replaced while requests
// are served. Get is suitable for instrument.WithConfig.
type Live struct {
	v atomic.Pointer[instrument.Config]
}

func NewLive(cfg instrument.Config) *Live {
	l := &Live{}
	l.Set(cfg)
	return l
}

func (l *Live) Get() instrument.Config { return *l.v.Load() }

func (l *Live) Set(cfg instrument.Config) { l.v.Store(&cfg) }
