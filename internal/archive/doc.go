// Package archive compresses finished session artifacts in place.
//
// Each artifact X becomes X.gz through a temp file that is decompressed
// and checksummed before the plain file is removed, so a crash at any
// point leaves either the original or a verified archive, never both and
// never a truncated one.
package archive
