// Package httpapi exposes the label verification loop as a JSON API.
//
//	POST   /api/grid                  multipart: image, spacing, color, max
//	POST   /api/sessions              multipart: image, barcode, region or x1/y1/x2/y2
//	GET    /api/sessions
//	GET    /api/sessions/:id
//	GET    /api/sessions/:id/preview  ?max=800
//	POST   /api/sessions/:id/retry
//	POST   /api/sessions/:id/accept   {"overrides": {"sugars": "4,5"}, "policy": "indian"}
//	DELETE /api/sessions/:id
//	GET    /api/products/:barcode     ?policy=
//	POST   /api/parse                 {"text": "..."}
//	POST   /api/score                 {"record": {...}, "nova_group": 3, "additives_tags": [...]}
//	GET    /api/ocr/configs
//	GET    /api/results               ?barcode=&limit=
//	GET    /api/results/:id
//
// The region form field takes the named placements of the MCP tools,
// including "auto" to locate the panel from the photograph itself.
//
// Validation errors answer 400, unknown sessions, products and results
// 404, and actions invalid in the session's state 409.
package httpapi
