// Package genai is the client for the external text generation and
// embedding service
//
// Responses that should be JSON are recovered locally: code fences are
// stripped, the first balanced object is extracted when the full text does
// not parse, and anything else degrades to an {error, raw} object rather
// than failing the caller
package genai
