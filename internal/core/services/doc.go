// Package services implements the engine's core behaviour behind the
// driving ports: the ingestion pipeline, hybrid search with rank fusion,
// and document access.
package services
