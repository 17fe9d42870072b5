// Package assetproxy is the kernel-facing contract for the web-asset reverse
// proxy that rewrites embedded-frame content (e.g. a preview iframe pointed
// at an agent's dev server). Spec.md §1 explicitly scopes this proxy out of
// the kernel, and original_source carries no Rust equivalent at all — Tauri
// serves the frontend directly through its own asset protocol, with nothing
// analogous to an embedded-frame body rewrite in git.rs/github.rs/skills.rs/
// keychain.rs/lib.rs. A real implementation would have no grounding source,
// so this stays a one-line interface stub rather than an invented body.
package assetproxy

// Rewriter rewrites the body of a proxied response for an embedded frame.
type Rewriter interface {
	Rewrite(frameURL string, body []byte) []byte
}

// Identity is a Rewriter that returns body unmodified. It satisfies callers
// that need a Rewriter value before a real proxy is implemented.
type Identity struct{}

// Rewrite returns body unchanged.
func (Identity) Rewrite(_ string, body []byte) []byte {
	return body
}
