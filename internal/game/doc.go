// Package game implements the Wolf-Goat-Pig rules engine: captain rotation,
// team formation validation, wager resolution under the stacking modifier
// catalogue, and quarter settlement with the Karl Marx uneven-split rule.
//
// The engine owns no I/O. It is handed fully-formed game state, advances it
// strictly hole-by-hole, and guarantees that every settlement's per-player
// point deltas sum to exactly zero. Callers that need persistence or
// transport wrap the engine; see internal/server.
package game
