package api

import (
	"github.com/hazyhaar/tournee-registry/pkg/kit"
	"github.com/hazyhaar/tournee-registry/pkg/lookup"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the route registry MCP tools on the server.
// They share the HTTP endpoints, logging middleware included.
func RegisterMCPTools(srv *server.MCPServer, d Deps) {
	eps := newEndpoints(d)
	registerLookupRoute(srv, eps)
	registerResolveWord(srv, eps)
	registerListArms(srv, eps)
	registerListCities(srv, eps)
}

func registerLookupRoute(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("lookup_route",
		mcp.WithDescription("Find the delivery route serving a spoken or typed address phrase. The street keyword is corrected against the known addresses before matching."),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("Free-form address phrase, e.g. \"euh la rue victaur\"")),
		mcp.WithString("bras", mcp.Description("Restrict to a distribution zone")),
		mcp.WithString("ville", mcp.Description("Restrict to a city")),
		mcp.WithString("type", mcp.Description("Restrict to a search type")),
	)

	kit.RegisterMCPTool(srv, tool, eps.lookup, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		phrase, _ := args["phrase"].(string)
		return &kit.MCPDecodeResult{Request: &lookupReq{Phrase: phrase, Filter: mcpFilter(args)}}, nil
	})
}

func registerResolveWord(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("resolve_word",
		mcp.WithDescription("Correct a single misspelled or misheard street word against the address vocabulary and list the closest candidates with their scores."),
		mcp.WithString("word", mcp.Required(), mcp.Description("The word to resolve")),
		mcp.WithNumber("n", mcp.Description("Number of candidates to return (default 5)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.resolve, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		word, _ := args["word"].(string)
		n, _ := args["n"].(float64)
		return &kit.MCPDecodeResult{Request: &resolveReq{Word: word, N: int(n)}}, nil
	})
}

func registerListArms(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("list_arms",
		mcp.WithDescription("List the distribution zones (BRAS) present in the route registry."),
	)

	kit.RegisterMCPTool(srv, tool, eps.arms, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerListCities(srv *server.MCPServer, eps *endpoints) {
	tool := mcp.NewTool("list_cities",
		mcp.WithDescription("List the cities served within a distribution zone."),
		mcp.WithString("bras", mcp.Required(), mcp.Description("The distribution zone")),
	)

	kit.RegisterMCPTool(srv, tool, eps.cities, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		bras, _ := req.GetArguments()["bras"].(string)
		return &kit.MCPDecodeResult{Request: &citiesReq{Bras: bras}}, nil
	})
}

func mcpFilter(args map[string]any) lookup.Filter {
	bras, _ := args["bras"].(string)
	ville, _ := args["ville"].(string)
	typ, _ := args["type"].(string)
	return lookup.Filter{Bras: bras, Ville: ville, TypeRecherche: typ}
}
