package mcp

import (
	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/melkeydev/mcp-dbbrowser/handlers"
)

func RegisterTools(s *server.MCPServer, browser handlers.Browser, connections handlers.Connections) {
	listCatalogsTool := goMCP.NewTool("list_catalogs",
		goMCP.WithDescription("List the catalogs (databases) visible through a stored connection"),
		connectionParam(),
	)

	listSchemasTool := goMCP.NewTool("list_schemas",
		goMCP.WithDescription("List the schemas of a catalog"),
		connectionParam(),
		catalogParam(),
	)

	listTablesTool := goMCP.NewTool("list_tables",
		goMCP.WithDescription("List the tables and views of a schema"),
		connectionParam(),
		catalogParam(),
		schemaParam(),
	)

	s.AddTool(listCatalogsTool, handlers.ListCatalogsHandler(browser))
	s.AddTool(listSchemasTool, handlers.ListSchemasHandler(browser))
	s.AddTool(listTablesTool, handlers.ListTablesHandler(browser))

	s.AddTool(tableTool("list_columns", "Describe the columns of a table and flag primary key columns"),
		handlers.ListColumnsHandler(browser))
	s.AddTool(tableTool("preview_data", "Return up to 20 rows of a table"),
		handlers.PreviewHandler(browser))
	s.AddTool(tableTool("column_statistics", "Compute min, max and null count for every column of a table"),
		handlers.ColumnStatisticsHandler(browser))
	s.AddTool(tableTool("table_statistics", "Count the rows of a table and describe its columns"),
		handlers.TableStatisticsHandler(browser))

	listConnectionsTool := goMCP.NewTool("list_connections",
		goMCP.WithDescription("List the stored connections (passwords are not returned)"),
	)

	getConnectionTool := goMCP.NewTool("get_connection",
		goMCP.WithDescription("Show one stored connection"),
		nameParam(),
	)

	createConnectionTool := goMCP.NewTool("create_connection",
		goMCP.WithDescription("Store a new connection"),
		nameParam(),
		goMCP.WithString("url",
			goMCP.Required(),
			goMCP.Description("Connection URL, e.g. postgres://host:5432/db or duckdb:/path/file.duckdb"),
		),
		goMCP.WithString("username",
			goMCP.Description("User name"),
		),
		goMCP.WithString("password",
			goMCP.Description("Password"),
		),
	)

	updateConnectionTool := goMCP.NewTool("update_connection",
		goMCP.WithDescription("Change a stored connection. Only the given fields are modified"),
		nameParam(),
		goMCP.WithNumber("version",
			goMCP.Required(),
			goMCP.Description("Version last read with get_connection; stale versions are rejected"),
		),
		goMCP.WithString("url",
			goMCP.Description("New connection URL"),
		),
		goMCP.WithString("username",
			goMCP.Description("New user name"),
		),
		goMCP.WithString("password",
			goMCP.Description("New password"),
		),
	)

	deleteConnectionTool := goMCP.NewTool("delete_connection",
		goMCP.WithDescription("Delete a stored connection"),
		nameParam(),
	)

	s.AddTool(listConnectionsTool, handlers.ListConnectionsHandler(connections))
	s.AddTool(getConnectionTool, handlers.GetConnectionHandler(connections))
	s.AddTool(createConnectionTool, handlers.CreateConnectionHandler(connections))
	s.AddTool(updateConnectionTool, handlers.UpdateConnectionHandler(connections))
	s.AddTool(deleteConnectionTool, handlers.DeleteConnectionHandler(connections))
}

func nameParam() goMCP.ToolOption {
	return goMCP.WithString("name",
		goMCP.Required(),
		goMCP.Description("Name of the stored connection"),
	)
}

func tableTool(name, description string) goMCP.Tool {
	return goMCP.NewTool(name,
		goMCP.WithDescription(description),
		connectionParam(),
		catalogParam(),
		schemaParam(),
		goMCP.WithString("table",
			goMCP.Required(),
			goMCP.Description("Table or view name"),
		),
	)
}

func connectionParam() goMCP.ToolOption {
	return goMCP.WithString("connection",
		goMCP.Required(),
		goMCP.Description("Name of the stored connection"),
	)
}

func catalogParam() goMCP.ToolOption {
	return goMCP.WithString("catalog",
		goMCP.Required(),
		goMCP.Description("Catalog (database) name"),
	)
}

func schemaParam() goMCP.ToolOption {
	return goMCP.WithString("schema",
		goMCP.Required(),
		goMCP.Description("Schema name"),
	)
}
