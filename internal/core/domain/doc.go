// Package domain contains the core types of the manual retrieval engine.
// Types here have no dependencies on adapters or external services.
package domain
