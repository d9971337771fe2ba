// Package core contains the canonical token-lifecycle domain: the credential
// record, the lifecycle service that owns it, and the contracts lower-level
// adapters implement. Core must not depend on provider-specific, storage, or
// transport adapters.
package core
