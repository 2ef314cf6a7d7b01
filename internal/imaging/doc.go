// Package imaging decodes product-label photographs and turns them into the
// high-contrast binary images that OCR works best on.
//
// Preprocess is the heart of the package. It enlarges small photographs,
// equalizes luminance locally, denoises, and applies an inverted adaptive
// threshold so that printed characters become white foreground on a black
// background. Equalization happens in CIE Lab space so that coloured
// packaging keeps its chroma while text contrast improves.
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// are half-open: (X1, Y1) inclusive, (X2, Y2) exclusive.
//
// All functions are stateless and safe to call concurrently on different
// images.
package imaging
