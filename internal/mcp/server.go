package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/jcdickinson/apiperms/internal/perms"
	"github.com/jcdickinson/apiperms/internal/rpc"
)

//go:embed instructions.md
var instructions string

// LoadFunc produces the model served by the tools.
type LoadFunc func() (*model.Model, error)

type Server struct {
	mcpServer *server.MCPServer
	load      LoadFunc

	loadGroup singleflight.Group
	mu        sync.RWMutex
	model     *model.Model
}

func NewServer(load LoadFunc) *Server {
	s := &Server{load: load}

	mcpServer := server.NewMCPServer(
		"apiperms",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("stats",
			mcp.WithDescription("Summarise the loaded model: package, class, method and permission counts."),
		),
		s.handleStats,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_permissions",
			mcp.WithDescription("List Android permissions ordered by name, optionally filtered by protection level."),
			mcp.WithString("level",
				mcp.Description("Protection level filter"),
				mcp.Enum("normal", "signature", "dangerous"),
			),
		),
		s.handleListPermissions,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_package",
			mcp.WithDescription("Get an API package with its classes and methods."),
			mcp.WithString("name",
				mcp.Description("Fully qualified package name (e.g. \"android.app\")"),
				mcp.Required(),
			),
		),
		s.handleGetPackage,
	)

	mcpServer.AddTool(
		mcp.NewTool("find_methods",
			mcp.WithDescription("Find API methods whose name or description contains the query (case-insensitive)."),
			mcp.WithString("query",
				mcp.Description("Substring to search for"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 50)"),
			),
		),
		s.handleFindMethods,
	)
}

// Model returns the loaded model, loading it on first use. Concurrent first
// callers share one load.
func (s *Server) Model() (*model.Model, error) {
	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	v, err, _ := s.loadGroup.Do("model", func() (interface{}, error) {
		s.mu.RLock()
		m := s.model
		s.mu.RUnlock()
		if m != nil {
			return m, nil
		}

		m, err := s.load()
		if err != nil {
			return nil, err
		}
		slog.Info("model loaded", "packages", len(m.Packages), "permissions", m.Permissions.Len())

		s.mu.Lock()
		s.model = m
		s.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Model), nil
}

func jsonResult(v any) *mcp.CallToolResult {
	resultJSON, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(resultJSON))
}

func (s *Server) handleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.Model()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}
	return jsonResult(rpc.NewStatsResponse(m)), nil
}

func (s *Server) handleListPermissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var listReq rpc.ListPermissionsRequest
	listReq.Level, _ = args["level"].(string)

	m, err := s.Model()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}

	if listReq.Level == "" {
		return jsonResult(rpc.NewPermissionList(m.Permissions.Sorted())), nil
	}
	level, ok := perms.ParseLevel(listReq.Level)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown protection level: %s", listReq.Level)), nil
	}
	return jsonResult(rpc.NewPermissionList(m.Permissions.Filter(level))), nil
}

func (s *Server) handleGetPackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	m, err := s.Model()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}

	pkg := apidoc.FindPackage(m.Packages, name)
	if pkg == nil {
		return mcp.NewToolResultError(fmt.Sprintf("package not found: %s", name)), nil
	}
	return jsonResult(rpc.NewPackageInfo(pkg)), nil
}

func (s *Server) handleFindMethods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	findReq := rpc.FindMethodsRequest{Query: query, Limit: 50}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		findReq.Limit = int(limit)
	}

	m, err := s.Model()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load model: %v", err)), nil
	}

	refs := apidoc.FindMethods(m.Packages, findReq.Query, findReq.Limit)
	return jsonResult(rpc.NewFindMethodsResponse(refs)), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
