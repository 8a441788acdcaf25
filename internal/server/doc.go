// Package server implements the HTTP server and HTTP handlers for the
// coverage board. It wires together the routes, dependencies (database,
// object storage client) and lifecycle helpers used by tests and the
// production binary.
package server
