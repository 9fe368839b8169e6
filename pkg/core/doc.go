// Package core defines the shared language of the tasty compiler: the AST
// produced by the parser and the ownership model (StorageKind) that every
// later stage reads.
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// Resolution results live in side tables owned by pkg/resolve, so the AST
// stays a plain syntax tree that the attribute expander may rewrite.
package core
