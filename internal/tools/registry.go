// Package tools exposes the analysis engine as named tools with JSON
// arguments. Any caller that speaks JSON (the HTTP gateway, the CLI, an
// orchestration layer) executes tools through a Registry.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrToolNotFound is returned when no tool is registered under a name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrInvalidArguments is returned when tool arguments do not decode or
	// fail validation.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// strict rejects unknown argument fields so typos surface as errors.
var strict = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// Tool is one callable analysis function.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters"`
	Handler     Handler `json:"-"`
}

// Handler executes a tool call. The result is JSON-encodable.
type Handler func(ctx context.Context, args jsoniter.RawMessage) (any, error)

// Schema is the JSON Schema subset used to describe tool parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Default     any                `json:"default,omitempty"`
}

// ObjectSchema creates a schema for an object with the given properties.
func ObjectSchema(desc string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Type:        "object",
		Description: desc,
		Properties:  props,
		Required:    required,
	}
}

// StringProp, NumberProp and IntProp describe scalar parameters.
func StringProp(desc string) *Schema { return &Schema{Type: "string", Description: desc} }
func NumberProp(desc string) *Schema { return &Schema{Type: "number", Description: desc} }
func IntProp(desc string) *Schema    { return &Schema{Type: "integer", Description: desc} }

// EnumProp describes a string parameter limited to values.
func EnumProp(desc string, values ...string) *Schema {
	return &Schema{Type: "string", Description: desc, Enum: values}
}

// ArrayProp describes a list parameter whose elements match items.
func ArrayProp(desc string, items *Schema) *Schema {
	return &Schema{Type: "array", Description: desc, Items: items}
}

// Registry holds the available tools.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	batchLimit int
}

// DefaultBatchLimit is how many batched calls run at once unless
// SetBatchLimit says otherwise.
const DefaultBatchLimit = 4

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool), batchLimit: DefaultBatchLimit}
}

// SetBatchLimit caps the calls ExecuteAll runs concurrently. n <= 0 restores
// DefaultBatchLimit.
func (r *Registry) SetBatchLimit(n int) {
	if n <= 0 {
		n = DefaultBatchLimit
	}
	r.mu.Lock()
	r.batchLimit = n
	r.mu.Unlock()
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the named tool with JSON arguments. Empty arguments mean
// every parameter takes its default.
func (r *Registry) Execute(ctx context.Context, name string, args jsoniter.RawMessage) (any, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if tool.Handler == nil {
		return nil, fmt.Errorf("tools: %q has no handler", name)
	}
	return tool.Handler(ctx, args)
}

// Call is one entry of a batch.
type Call struct {
	Name      string              `json:"name"`
	Arguments jsoniter.RawMessage `json:"arguments,omitempty"`
}

// CallResult is the outcome of one batched call.
type CallResult struct {
	Name    string        `json:"name"`
	Result  any           `json:"result,omitempty"`
	Err     error         `json:"-"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"-"`
}

// ExecuteAll runs calls concurrently, at most the batch limit at a time, and
// returns results in call order. A failing call does not stop the others.
func (r *Registry) ExecuteAll(ctx context.Context, calls []Call) []CallResult {
	r.mu.RLock()
	limit := r.batchLimit
	r.mu.RUnlock()

	results := make([]CallResult, len(calls))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, call := range calls {
		g.Go(func() error {
			start := time.Now()
			out, err := r.Execute(ctx, call.Name, call.Arguments)
			res := CallResult{Name: call.Name, Result: out, Err: err, Elapsed: time.Since(start)}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// decodeArgs strictly decodes raw into v. Empty input and JSON null leave v
// unchanged.
func decodeArgs(raw jsoniter.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := strict.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
