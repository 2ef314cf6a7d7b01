// Package server implements the MCP (Model Context Protocol) server for
// nutrition-label verification.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Verification Loop:
//   - label_extract: Start a session from a label photograph; region "auto"
//     locates the panel
//   - label_grid: Overlay a coordinate grid for choosing a crop rectangle
//   - label_retry: Re-read with the next OCR configuration
//   - label_accept: Freeze the record, apply corrections and grade it
//   - label_abandon: Discard a session
//   - label_status: Inspect one or all live sessions
//
// Product Data:
//   - barcode_lookup: Grade a product from Open Food Facts alone
//
// Nutrition Helpers:
//   - nutrition_parse: Parse facts from raw text
//   - nutrition_score: Grade a record and estimate its NOVA group
//
// OCR and History:
//   - ocr_configs: List the OCR configuration cycle
//   - results_list: Browse accepted results
//
// A typical client calls label_extract, shows the record to the operator,
// calls label_retry until the reading looks right and finishes with
// label_accept.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error text, which names the offending field for rejected
//     manual values
package server
