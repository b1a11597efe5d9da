package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

// ToolInputSchema describes a tool's arguments as a JSON schema object.
type ToolInputSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// Tool represents a tool that can be executed by the bridge. Arguments are
// handed to the handler as raw JSON so handlers that care about key order
// (constraint sets) can decode it themselves.
type Tool struct {
	Name        string
	Description string
	InputSchema ToolInputSchema
	Handler     func(ctx context.Context, args json.RawMessage) (interface{}, error)
}

// Registry manages the available tools. The catalog is immutable for the
// process lifetime once registration finishes.
type Registry struct {
	tools map[string]*Tool
	mu    sync.RWMutex
}

// ErrToolNotFound is returned when a tool is not found
var ErrToolNotFound = errors.New("tool not found")

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// RegisterTool registers a tool with the registry
func (r *Registry) RegisterTool(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// GetTool gets a tool by name
func (r *Registry) GetTool(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// GetAllTools gets all registered tools, ordered by name so the catalog is
// deterministic.
func (r *Registry) GetAllTools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	return tools
}

// ExecuteTool executes a tool with the given arguments
func (r *Registry) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	tool, ok := r.GetTool(name)
	if !ok {
		return nil, ErrToolNotFound
	}

	return tool.Handler(ctx, args)
}
