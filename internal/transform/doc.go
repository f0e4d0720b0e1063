// Package transform converts downloaded raster images into normalized
// tensor buffers.
//
// Four size policies are supported: original (pass-through), scale
// (longer edge to target), crop (cover then center-crop to a square) and
// fill (letterbox onto a black square canvas). All resizes use Lanczos
// resampling. When libvips is available it is used for decode-time
// shrinking of large sources, with a pure-Go fallback.
package transform
