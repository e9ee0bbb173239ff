// Package parse extracts structured data from raw LLM text output. Models
// frequently wrap JSON in prose or markdown fences, or echo schema-style
// {type, value} wrappers, so [ParseStringAs] applies candidate extraction,
// automatic JSON repair and schema unwrapping before giving up.
package parse
