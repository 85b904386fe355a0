// Package tools holds the dispatch table mapping method names to handlers.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/developer-mesh/mcp-github-server/internal/models"
	"github.com/developer-mesh/mcp-github-server/internal/validation"
)

// Method is a supported method name
type Method string

const (
	MethodListRepos         Method = "github.listRepos"
	MethodGetFile           Method = "github.getFile"
	MethodCreateFile        Method = "github.createFile"
	MethodUpdateFile        Method = "github.updateFile"
	MethodCreateIssue       Method = "github.createIssue"
	MethodListIssues        Method = "github.listIssues"
	MethodCreatePullRequest Method = "github.createPullRequest"
	MethodMergePullRequest  Method = "github.mergePullRequest"
	MethodDispatchWorkflow  Method = "github.dispatchWorkflow"
	MethodBase64Encode      Method = "utils.base64Encode"
	MethodBase64Decode      Method = "utils.base64Decode"
	MethodTimestamp         Method = "utils.timestamp"
	MethodServerInfo        Method = "utils.serverInfo"
)

// AllMethods returns every method the gateway declares
func AllMethods() []Method {
	return []Method{
		MethodListRepos,
		MethodGetFile,
		MethodCreateFile,
		MethodUpdateFile,
		MethodCreateIssue,
		MethodListIssues,
		MethodCreatePullRequest,
		MethodMergePullRequest,
		MethodDispatchWorkflow,
		MethodBase64Encode,
		MethodBase64Decode,
		MethodTimestamp,
		MethodServerInfo,
	}
}

func isDeclared(name Method) bool {
	for _, m := range AllMethods() {
		if m == name {
			return true
		}
	}
	return false
}

// ToolHandler executes one method with already validated parameters
type ToolHandler func(ctx context.Context, params Params) (interface{}, error)

// ToolDefinition defines a method
type ToolDefinition struct {
	Name        Method                 `json:"name"`
	Description string                 `json:"description"`
	Required    []string               `json:"required,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
	Handler     ToolHandler            `json:"-"`
}

// Provider supplies a group of method definitions
type Provider interface {
	GetDefinitions() []ToolDefinition
}

type registeredTool struct {
	def    ToolDefinition
	schema *validation.Schema
}

// Registry manages methods
type Registry struct {
	tools map[Method]*registeredTool
	mu    sync.RWMutex
}

// NewRegistry creates a new registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[Method]*registeredTool),
	}
}

// Register adds every definition of a provider. Undeclared or duplicate
// names, missing handlers and invalid schemas are rejected.
func (r *Registry) Register(provider Provider) error {
	defs := provider.GetDefinitions()
	compiled := make([]*registeredTool, 0, len(defs))

	for _, def := range defs {
		if !isDeclared(def.Name) {
			return fmt.Errorf("method %q is not declared", def.Name)
		}
		if def.Handler == nil {
			return fmt.Errorf("method %q has no handler", def.Name)
		}

		var schema *validation.Schema
		if def.InputSchema != nil {
			var err error
			schema, err = validation.CompileSchema(def.InputSchema)
			if err != nil {
				return fmt.Errorf("method %q: %w", def.Name, err)
			}
		}
		compiled = append(compiled, &registeredTool{def: def, schema: schema})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range compiled {
		if _, exists := r.tools[t.def.Name]; exists {
			return fmt.Errorf("method %q registered twice", t.def.Name)
		}
	}
	for _, t := range compiled {
		r.tools[t.def.Name] = t
	}
	return nil
}

// Lookup returns the definition registered under name
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[Method(name)]
	if !ok {
		return ToolDefinition{}, false
	}
	return t.def, true
}

// Names returns the registered method names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered methods
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Verify checks that every declared method has a handler
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, m := range AllMethods() {
		if _, ok := r.tools[m]; !ok {
			missing = append(missing, string(m))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("methods without a handler: %v", missing)
	}
	return nil
}

// Execute validates raw parameters and runs the named method
func (r *Registry) Execute(ctx context.Context, name string, raw json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	tool, exists := r.tools[Method(name)]
	r.mu.RUnlock()

	if !exists {
		return nil, models.NewMethodNotFoundError(name)
	}

	params, err := DecodeParams(raw)
	if err != nil {
		return nil, err
	}

	if err := validation.CheckRequired(params, tool.def.Required); err != nil {
		return nil, err
	}
	if err := tool.schema.Validate(params); err != nil {
		return nil, err
	}

	return tool.def.Handler(ctx, params)
}

// DecodeParams decodes a parameter bag. Absent or null params are an empty
// object; anything other than an object is a validation error.
func DecodeParams(raw json.RawMessage) (Params, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Params{}, nil
	}
	if trimmed[0] != '{' {
		return nil, models.NewValidationError("params must be an object")
	}

	var params Params
	if err := json.Unmarshal(trimmed, &params); err != nil {
		return nil, models.NewValidationError("invalid params: " + err.Error())
	}
	return params, nil
}
