package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// runInfo handles the "fusiond info" subcommand: general framework
// information, or (with a flag) a client-specific MCP configuration
// snippet, mirroring the teacher's own info subcommand shape.
func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	opencode := fs.Bool("opencode", false, "show OpenCode MCP client configuration")
	claude := fs.Bool("claude", false, "show Claude Desktop MCP client configuration")
	cursor := fs.Bool("cursor", false, "show Cursor MCP client configuration")
	fs.Parse(args)

	switch {
	case *opencode:
		printClientConfig("OpenCode", ".opencode.json or opencode.json")
	case *claude:
		printClientConfig("Claude Desktop", "claude_desktop_config.json")
	case *cursor:
		printClientConfig("Cursor", ".cursor/mcp.json")
	default:
		printGeneralInfo()
	}
}

func printGeneralInfo() {
	fmt.Fprintf(os.Stdout, `fusiond %s — mcp-fusion server

fusiond compiles declarative tool descriptions (actions, common schema,
middleware, state-sync hints) into a discriminated-union input schema and
an O(1) dispatch table, then serves them over MCP.

TRANSPORT MODES

  stdio (default)
    Communicates over stdin/stdout using JSON-RPC 2.0. Used when launched
    as a subprocess by an MCP client.

  http
    Runs as a standalone HTTP server (MCP Streamable HTTP transport,
    spec 2025-03-26).

    Endpoint:      POST /mcp
    Health check:  GET /health

TOOLS (demo fleet)

  users     Grouped tool: read-only "users.list", destructive "users.delete"
  billing   Common-schema omission ("me" vs "list") plus a destructive
            "pay" action that invalidates the "invoices" group
  sandbox   Exposes user-supplied JavaScript through the sandbox engine

RESOURCES

  fusion://framework-guide   Builder/compiler conventions reference
  fusion://manifest.json     Live structural contract for every registered tool

PROMPTS

  fusion-guide   How to call fusion tools: action discriminator, field
                 omission, and error shapes

CAPABILITY TOOLING

  fusionctl lock    write mcp-fusion.lock from the current tool set
  fusionctl check   gate CI on unreviewed capability drift
  fusionctl diff    print structural deltas between two contract snapshots

CLIENT CONFIGURATION

  To see configuration for a specific MCP client, run:

    fusiond info --opencode    OpenCode
    fusiond info --claude      Claude Desktop
    fusiond info --cursor      Cursor
`, Version)
}

func printClientConfig(client, file string) {
	fmt.Fprintf(os.Stdout, `%s — stdio mode
%s

Add to %s:

{
  "mcpServers": {
    "fusion": {
      "command": "fusiond"
    }
  }
}

%s — HTTP mode (remote server)

{
  "mcpServers": {
    "fusion": {
      "type": "streamable-http",
      "url": "http://your-fusiond-host:21453/mcp"
    }
  }
}
`, client, strings.Repeat("─", len(client)+14), file, client)
}
