package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/melkeydev/mcp-dbbrowser/registry"
	"github.com/melkeydev/mcp-dbbrowser/types"
)

// Browser answers metadata, preview and statistics requests for named
// connections. found is false when the connection name is unknown.
type Browser interface {
	ListCatalogs(ctx context.Context, connection string) ([]string, bool, error)
	ListSchemas(ctx context.Context, connection, catalog string) ([]string, bool, error)
	ListTables(ctx context.Context, connection, catalog, schema string) ([]types.DatabaseObject, bool, error)
	ListColumns(ctx context.Context, connection, catalog, schema, table string) ([]types.TableColumn, bool, error)
	PreviewRows(ctx context.Context, connection, catalog, schema, table string) ([]types.Row, bool, error)
	ColumnStatistics(ctx context.Context, connection, catalog, schema, table string) ([]types.ColumnStatistics, bool, error)
	TableStatistics(ctx context.Context, connection, catalog, schema, table string) (*types.TableStatistics, bool, error)
}

// Connections manages the stored connection descriptors.
type Connections interface {
	List(ctx context.Context) ([]types.ConnectionDescriptor, error)
	Get(ctx context.Context, name string) (types.ConnectionDescriptor, error)
	Create(ctx context.Context, desc types.ConnectionDescriptor) (types.ConnectionDescriptor, bool, error)
	Update(ctx context.Context, desc types.ConnectionDescriptor) (types.ConnectionDescriptor, bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// ListCatalogsHandler creates a handler for the list_catalogs tool
func ListCatalogsHandler(b Browser) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := requireArgs(request, "connection")
		if errResult != nil {
			return errResult, nil
		}

		catalogs, found, err := b.ListCatalogs(ctx, args[0])
		return respond(args[0], catalogs, found, err)
	}
}

// ListSchemasHandler creates a handler for the list_schemas tool
func ListSchemasHandler(b Browser) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := requireArgs(request, "connection", "catalog")
		if errResult != nil {
			return errResult, nil
		}

		schemas, found, err := b.ListSchemas(ctx, args[0], args[1])
		return respond(args[0], schemas, found, err)
	}
}

// ListTablesHandler creates a handler for the list_tables tool
func ListTablesHandler(b Browser) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := requireArgs(request, "connection", "catalog", "schema")
		if errResult != nil {
			return errResult, nil
		}

		tables, found, err := b.ListTables(ctx, args[0], args[1], args[2])
		return respond(args[0], tables, found, err)
	}
}

// ListColumnsHandler creates a handler for the list_columns tool
func ListColumnsHandler(b Browser) server.ToolHandlerFunc {
	return tableHandler(b.ListColumns)
}

// PreviewHandler creates a handler for the preview_data tool
func PreviewHandler(b Browser) server.ToolHandlerFunc {
	return tableHandler(b.PreviewRows)
}

// ColumnStatisticsHandler creates a handler for the column_statistics tool
func ColumnStatisticsHandler(b Browser) server.ToolHandlerFunc {
	return tableHandler(b.ColumnStatistics)
}

// TableStatisticsHandler creates a handler for the table_statistics tool
func TableStatisticsHandler(b Browser) server.ToolHandlerFunc {
	return tableHandler(b.TableStatistics)
}

func tableHandler[T any](op func(ctx context.Context, connection, catalog, schema, table string) (T, bool, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := requireArgs(request, "connection", "catalog", "schema", "table")
		if errResult != nil {
			return errResult, nil
		}

		result, found, err := op(ctx, args[0], args[1], args[2], args[3])
		return respond(args[0], result, found, err)
	}
}

// ListConnectionsHandler creates a handler for the list_connections tool.
// Passwords are never returned.
func ListConnectionsHandler(c Connections) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		conns, err := c.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("List connections failed: %v", err)), nil
		}

		for i := range conns {
			conns[i].Password = ""
		}
		return marshal(conns)
	}
}

// GetConnectionHandler creates a handler for the get_connection tool
func GetConnectionHandler(c Connections) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing name parameter: %v", err)), nil
		}

		conn, err := c.Get(ctx, name)
		if errors.Is(err, registry.ErrNotFound) {
			return notFound(name), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Get connection failed: %v", err)), nil
		}

		conn.Password = ""
		return marshal(conn)
	}
}

// CreateConnectionHandler creates a handler for the create_connection tool
func CreateConnectionHandler(c Connections) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := requireArgs(request, "name", "url")
		if errResult != nil {
			return errResult, nil
		}

		created, ok, err := c.Create(ctx, types.ConnectionDescriptor{
			Name:     args[0],
			URL:      args[1],
			Username: request.GetString("username", ""),
			Password: request.GetString("password", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Create connection failed: %v", err)), nil
		}
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("connection %q already exists", args[0])), nil
		}

		created.Password = ""
		return marshal(created)
	}
}

// UpdateConnectionHandler creates a handler for the update_connection tool.
// Only the fields present in the request change, and the update is rejected
// when version no longer matches the stored one.
func UpdateConnectionHandler(c Connections) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing name parameter: %v", err)), nil
		}
		version, err := request.RequireInt("version")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing version parameter: %v", err)), nil
		}

		desc, err := c.Get(ctx, name)
		if errors.Is(err, registry.ErrNotFound) {
			return notFound(name), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Get connection failed: %v", err)), nil
		}

		args := request.GetArguments()
		if _, ok := args["url"]; ok {
			desc.URL = request.GetString("url", desc.URL)
		}
		if _, ok := args["username"]; ok {
			desc.Username = request.GetString("username", desc.Username)
		}
		if _, ok := args["password"]; ok {
			desc.Password = request.GetString("password", desc.Password)
		}
		desc.Version = int64(version)

		updated, found, err := c.Update(ctx, desc)
		if errors.Is(err, registry.ErrConflict) {
			return mcp.NewToolResultError(fmt.Sprintf("connection %q was modified since version %d", name, version)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Update connection failed: %v", err)), nil
		}
		if !found {
			return notFound(name), nil
		}

		updated.Password = ""
		return marshal(updated)
	}
}

// DeleteConnectionHandler creates a handler for the delete_connection tool
func DeleteConnectionHandler(c Connections) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing name parameter: %v", err)), nil
		}

		deleted, err := c.Delete(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Delete connection failed: %v", err)), nil
		}
		if !deleted {
			return notFound(name), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("connection %q deleted", name)), nil
	}
}

func requireArgs(request mcp.CallToolRequest, names ...string) ([]string, *mcp.CallToolResult) {
	values := make([]string, len(names))
	for i, name := range names {
		v, err := request.RequireString(name)
		if err != nil {
			return nil, mcp.NewToolResultError(fmt.Sprintf("Missing %s parameter: %v", name, err))
		}
		values[i] = v
	}
	return values, nil
}

func respond(connection string, result any, found bool, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Request failed: %v", err)), nil
	}
	if !found {
		return notFound(connection), nil
	}
	return marshal(result)
}

func notFound(connection string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("connection %q not found", connection))
}

func marshal(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonData)), nil
}
