// Package output renders documents to KDL text and delivers the result.
//
// The package is organized around three concerns:
//
//   - Layouts (registry.go): named renderers ("human", "compact") backed by
//     the kdl package, looked up through a [Registry].
//
//   - Writers (writer.go): pluggable destinations via the [Writer]
//     interface, with [StdoutWriter] and [FileWriter] implementations.
//
//   - Paths (path.go): mapping of input files to their .kdl destinations.
package output
