// Package driving provides interfaces for inbound adapters (primary ports).
// The HTTP API, MCP server and CLI all consume the engine through these.
package driving
