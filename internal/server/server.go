// Package server serves GraphQL over HTTP. Each request is parsed, validated
// and executed inside an http.request span, with lifecycle events published
// to the event bus.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/gqltrace/internal/eventbus"
	events "github.com/hanpama/gqltrace/internal/events"
	executor "github.com/hanpama/gqltrace/internal/executor"
	instrument "github.com/hanpama/gqltrace/internal/instrument"
	introspection "github.com/hanpama/gqltrace/internal/introspection"
	language "github.com/hanpama/gqltrace/internal/language"
	reqid "github.com/hanpama/gqltrace/internal/reqid"
	schema "github.com/hanpama/gqltrace/internal/schema"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

const (
	tracerName      = "github.com/hanpama/gqltrace/internal/server"
	requestIDHeader = "Graphql-Request-Id"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor and writes GraphQL JSON responses.
type Handler struct {
	exec   *executor.Executor
	schema *schema.Schema
	tracer trace.Tracer
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into the outgoing gRPC
	// metadata of the resolver context. Header names are case-insensitive.
	// Default is none.
	MetadataHeaders []string

	// Introspection adds __schema and __type to the query type. Default true.
	Introspection bool

	// Instrumentation traces parse, validation, execution and resolvers.
	// Nil disables GraphQL spans; the http.request span is still recorded.
	Instrumentation *instrument.Instrumentation

	// TracerProvider creates the http.request span. Defaults to the global
	// provider.
	TracerProvider trace.TracerProvider

	// RootValue is the source value of every root field.
	RootValue any
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithIntrospection(enable bool) Option { return func(o *Options) { o.Introspection = enable } }
func WithInstrumentation(inst *instrument.Instrumentation) Option {
	return func(o *Options) { o.Instrumentation = inst }
}
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) { o.TracerProvider = tp }
}
func WithRootValue(v any) Option { return func(o *Options) { o.RootValue = v } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler for sch. With instrumentation enabled,
// the resolvers of sch are wrapped in place and the runtime's default field
// resolver is traced as a trivial resolver.
func New(runtime executor.Runtime, sch *schema.Schema, opts ...Option) (*Handler, error) {
	if sch == nil {
		return nil, errors.New("server: nil schema")
	}
	if sch.GetQueryType() == nil {
		return nil, errors.New("server: schema has no query type")
	}
	op := Options{Timeout: 10 * time.Second, Introspection: true}
	for _, f := range opts {
		f(&op)
	}
	if op.TracerProvider == nil {
		op.TracerProvider = otel.GetTracerProvider()
	}

	var execOpts []executor.Option
	if inst := op.Instrumentation; inst != nil {
		inst.WrapSchema(sch)
		base := executor.DefaultFieldResolver
		if fr, ok := runtime.(executor.FieldResolver); ok {
			base = fr.ResolveField
		}
		execOpts = append(execOpts,
			executor.WithHook(inst),
			executor.WithDefaultResolver(inst.WrapTrivialResolver(base)),
		)
	}
	exposed := sch
	if op.Introspection {
		exposed = introspection.Extend(sch)
	}
	return &Handler{
		exec:   executor.NewExecutor(runtime, exposed, execOpts...),
		schema: exposed,
		tracer: op.TracerProvider.Tracer(tracerName),
		opt:    op,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	ctx, span := h.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()
	w.Header().Set(requestIDHeader, rid.String())

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(nil, &language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Map configured headers into metadata
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md[strings.ToLower(requestIDHeader)] = []string{rid.String()}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(nil, berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		// Batched requests
		op := make([]any, len(batch))
		for i := range batch {
			res := h.executeOne(ctx, batch[i])
			op[i] = res
		}
		writeJSON(w, status, op, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, req)
	writeJSON(w, status, res, h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) any {
	start := time.Now()
	doc, err := h.parse(ctx, req.Query)
	if err != nil {
		errs := language.AsErrorList(err)
		h.publishFinish(ctx, req, "", errorsOf(errs), start)
		return listResponse(errs)
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && req.OperationName == "" && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})

	if errs := h.validate(ctx, doc); len(errs) > 0 {
		h.publishFinish(ctx, req, opType, errorsOf(errs), start)
		return listResponse(errs)
	}

	result := h.exec.Execute(ctx, &executor.ExecutionRequest{
		Document:      doc,
		Source:        req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		RootValue:     h.opt.RootValue,
	})
	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	h.publishFinish(ctx, req, opType, errs, start)
	if len(result.Errors) > 0 {
		return toSpecResult(result)
	}
	return result
}

func (h *Handler) parse(ctx context.Context, query string) (*language.QueryDocument, error) {
	if inst := h.opt.Instrumentation; inst != nil {
		return inst.Parse(ctx, query)
	}
	return language.ParseQuery(query)
}

func (h *Handler) validate(ctx context.Context, doc *language.QueryDocument) language.ErrorList {
	if inst := h.opt.Instrumentation; inst != nil {
		return inst.Validate(ctx, h.schema, doc)
	}
	if h.schema.AST == nil {
		return nil
	}
	return language.Validate(h.schema.AST, doc)
}

func (h *Handler) publishFinish(ctx context.Context, req GraphQLRequest, opType string, errs []error, start time.Time) {
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
}

func errorsOf(list language.ErrorList) []error {
	out := make([]error, len(list))
	for i, e := range list {
		out[i] = e
	}
	return out
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || startsWith(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
		}

		// Try array (batch)
		var arr []GraphQLRequest
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
}

// ------------------ Response formatting ------------------

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(data any, err *language.Error) specResult {
	se := specError{Message: err.Message}
	return specResult{Data: data, Errors: []specError{se}}
}

// listResponse formats request errors raised before execution.
func listResponse(list language.ErrorList) specResult {
	out := specResult{Errors: make([]specError, len(list))}
	for i, e := range list {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		for _, loc := range e.Locations {
			se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
		}
		for _, pe := range e.Path {
			se.Path = append(se.Path, pe)
		}
		out.Errors[i] = se
	}
	return out
}

func toSpecResult(res *executor.ExecutionResult) specResult {
	out := specResult{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]specError, len(res.Errors))
	for i, e := range res.Errors {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		// Path
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				switch v := pe.(type) {
				case string:
					se.Path[j] = v
				case int:
					se.Path[j] = v
				default:
					se.Path[j] = toString(v)
				}
			}
		}
		out.Errors[i] = se
	}
	// Partial data is kept alongside the errors.
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func startsWith(s, prefix string) bool { return len(s) >= len(prefix) && s[:len(prefix)] == prefix }
func toString(v any) string            { b, _ := json.Marshal(v); return string(b) }

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
