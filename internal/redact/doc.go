// Package redact rewrites recorded traces so they can leave the machine
// without carrying sensitive content.
//
// A run has two phases. Collectors read the source trace and populate a
// shared Context with derived facts (allowlists, the target package uid).
// Transforms then rewrite each packet using that Context, dropping
// sub-events and fields the policy does not permit. The Context is sealed
// between the phases: collectors are the only writers, transforms are
// concurrent readers.
//
// The Redactor drives both phases and publishes the output atomically; a
// failed run never leaves a destination file behind.
package redact
