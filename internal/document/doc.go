// Package document lays out a quotation record into fixed-size pages of placement commands and
// hands the finished pages to an Encoder for serialization.
//
// # Pipeline
//
// A render runs the section renderers in a fixed order against one render state:
//
//   - header: logo, company block and quote number/date
//   - customer: "Prepared for" block
//   - item table: shaded header row plus one row per line item, paginated
//   - totals box
//   - notes and signature
//   - footer terms, last page only
//
// Every section reads and advances the cursor held by a [Geometry]. Rows are measured in full
// before [Geometry.EnsureSpace] is asked for their complete height, so a line item is never split
// across pages and the table header is redrawn at the top of every page that carries rows.
//
// # Units
//
// Coordinates are millimetres from the top-left corner of the page. Font sizes are points.
// Text runs are positioned by their baseline.
//
// # Backends
//
// Pages are backend neutral. The pdf subpackage turns them into a PDF file; tests inspect the
// command lists directly. Identical records always produce identical pages, and the pdf encoder
// keeps that property for the serialized bytes.
package document
