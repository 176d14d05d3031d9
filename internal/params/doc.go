// Package params turns command-line and file parameters into Cypher query parameters.
//
// Values are typed the way YAML types scalars: "42" becomes an int,
// "true" a bool, "[a, b]" a list and anything else stays a string. Quote a
// value ('"42"') to keep it a string.
//
// Precedence, highest first: --param flags, --params-file entries, the
// params section of neoload.yaml, then per-file parameters for a single file.
// The key "rows" is reserved for the chunk being loaded and is rejected.
package params
