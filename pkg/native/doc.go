// Package native describes the capability a DWG parser must offer (Library),
// how parsers are discovered (Provider, Registry), and the Adapter that owns
// the single process-wide Library handle.
//
// Parsers disagree on field names and shapes; this package does not paper
// over that. RawEntity keeps each parser's own properties and the normalizer
// reconciles them. Implementations live under internal/native.
package native
