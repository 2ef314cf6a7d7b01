// Package storage persists accepted verification results.
//
// Nothing is written before a session reaches the accepted state, so an
// abandoned session never leaves a trace here.
package storage
