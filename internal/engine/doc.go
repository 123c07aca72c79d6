// Package engine executes the renewal workflow graph
//
// A run starts at the orchestrate node and visits one node at a time. Each
// step receives a copy of the merged state and returns a partial update,
// which is folded in with the api reducer table before the routing function
// of the executed node selects the next node. The greet_close and draft
// steps form a fork pair: both run concurrently against the same snapshot
// and their updates are merged in declaration order on join. A run ends at
// a terminal node, and every merged update is emitted in order
package engine
