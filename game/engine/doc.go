// Package engine provides the core game logic for rock-paper-scissors.
//
// The engine package implements:
//   - The three-valued Move type and its wire encoding
//   - The fixed beats-relation between moves
//   - Outcome resolution for two simultaneous moves
//
// Core Types:
//
// Move is a closed enum of rock, paper and scissors. Its zero value, NoMove,
// stands for "no choice submitted yet" so rooms can hold a choice slot without
// pointers. Outcome is the result of a round seen from player 1's side.
//
// Usage:
//
//	a, err := engine.ParseMove("rock")
//	if err != nil {
//		return err
//	}
//	b, _ := engine.ParseMove("scissors")
//
//	switch engine.Resolve(a, b) {
//	case engine.Player1Wins:
//		// rock beats scissors
//	}
//
// Game Rules:
//
// Equal moves draw. Otherwise rock beats scissors, scissors beats paper and
// paper beats rock. Resolve is pure and total over the 3x3 input space.
package engine
