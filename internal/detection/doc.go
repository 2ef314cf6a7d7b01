// Package detection locates the nutrition panel in a product photograph.
//
// Nutrition tables are dense blocks of short horizontal text rows. A
// gradient edge map is scanned with sliding windows sized for label type;
// windows whose edge density and horizontal structure look like text become
// candidates, overlapping candidates merge into blocks, and the block with
// the most text-like area is taken as the panel.
//
// The heuristic works on clean, roughly axis-aligned shots. It returns
// ErrNoPanel rather than guessing when nothing looks like text, and callers
// fall back to the whole photograph.
package detection
