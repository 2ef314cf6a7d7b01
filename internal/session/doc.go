// Package session implements the extraction verification loop.
//
// A session moves through these states:
//
//	awaiting_upload -> extracted -> accepted
//	                      ^   |
//	                      |   v
//	                    retrying
//
// Extraction runs every OCR configuration once and merges the outputs.
// Each retry advances to the next configuration, wrapping after the last,
// and re-reads the label with that configuration alone. The loop has no
// automatic end: the operator either accepts, optionally overriding
// individual values, or abandons the session.
//
// Nothing is persisted until acceptance. Abandoning discards the session
// without side effects.
package session
