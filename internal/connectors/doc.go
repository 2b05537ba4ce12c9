// Package connectors provides the sources documents are read from.
// The filesystem connector lists the documents of an input directory and
// watches it for new or rewritten files.
package connectors
