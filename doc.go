//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

// Package evloop is the Unix core of an asynchronous I/O event loop.
//
// evloop acts in reactor mode: a single loop goroutine multiplexes readiness
// of many file descriptors using an edge-capable OS facility (epoll on
// Linux, kqueue on Darwin/BSD), fires timers, and runs user callbacks in a
// strict per-tick phase order (timers, pending, idle, prepare, poll, check,
// closing). A Loop has exactly one owner goroutine; nothing in this package
// is safe to call concurrently on the same Loop from any other goroutine,
// except through the Async handle.
//
// Concrete protocol handles (TCP, UDP, pipes, TTYs, processes) are not part
// of this package. It provides the primitives such handles are built from:
// Handle for lifecycle and the two-phase close protocol, and the IO watcher
// for registering a raw fd with the readiness backend. See Idle, Prepare,
// Check, Timer, Async, Signal and Poll for the handle kinds the core itself
// defines.
package evloop
