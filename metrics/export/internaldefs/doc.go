// Package internaldefs holds the metric names, help strings and bucket
// boundaries shared by the exporters, so every backend reports the same
// series.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
