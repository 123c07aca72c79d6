// Package server implements the HTTP API of the renewal service
//
// This package provides REST endpoints for triggering runs, receiving
// customer replies, inspecting policy status and the operations dashboard,
// along with a WebSocket stream of run events
package server
