// Package engine implements the UCI protocol engine.
//
// One goroutine running Engine.Run owns all protocol state: the command
// queue with its single command window, the reassembler, the device and
// session state machines and the recovery manager. Transport callbacks
// and application calls post messages to the loop and receive their
// outcome through a Future resolved exactly once.
package engine
