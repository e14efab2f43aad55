// Package movie turns a closed capture session into a single normalized
// video.
//
// The Assembler repairs any remaining sequence gaps, derives (or reuses)
// the session's target resolution, and invokes the encoder with a
// deterministic scale-and-pad filter so every output frame has identical
// dimensions regardless of its capture resolution. The encoder itself is a
// narrow capability interface; FFmpeg is the production implementation and
// tests substitute a deterministic stub.
package movie
