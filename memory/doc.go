// Package memory implements per-owner conversational memory with
// consolidation.
//
// Facts are extracted from conversation turns, embedded, and merged into an
// owner's memory set: duplicates are discarded, refinements rewrite the
// memory they extend, and contradictions replace the statement they
// invalidate. Questions are answered by retrieving the most similar memories
// and composing them into a prompt for the language model.
//
// The Manager type wires the pipeline; Store, Embedder, and llm.Gateway are
// the pluggable backends.
package memory
