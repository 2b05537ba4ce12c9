// Package codec reads and writes Communication documents.
//
// Codecs:
//   - JSON (.json, default)
//   - YAML (.yaml, .yml)
//   - MessagePack (.msgpack, .mp)
//
// All codecs use the json field names of the domain types, so a document
// converted between formats keeps the same keys.
package codec
