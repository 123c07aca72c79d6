// Package api defines the shared data types of the renewal service
//
// This package contains the workflow state threaded through a run, the
// partial updates steps return and the merge rules that fold them together,
// plus the persisted records and HTTP messages exchanged at the boundary
package api
