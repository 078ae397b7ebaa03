// Package lockout counts consecutive failed attempts per key and refuses new
// attempts once a key has exhausted its allowance within a window.
//
// Two stores are provided: Redis for multi-instance deployments and an
// in-memory store for single-process or test use.
package lockout
