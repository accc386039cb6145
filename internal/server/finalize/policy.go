package finalize

import (
	sc "github.com/dpetrovs/fileupload/internal/server/config"
)

// Decision is the type policy's verdict for one extension.
type Decision int

const (
	// Reject aborts finalization; staged bytes are deleted and no records
	// are created.
	Reject Decision = iota
	// AcceptPlain stores the file without a derived thumbnail.
	AcceptPlain
	// AcceptImage stores the file and attempts a thumbnail.
	AcceptImage
)

// Policy decides whether an upload is accepted and whether a thumbnail
// should be attempted, from the derived extension alone.
//
// Two variants exist and a deployment runs exactly one:
//   - permissive (default): every extension is accepted; the image set only
//     selects which files get a thumbnail attempt.
//   - restrictive: extensions outside the configured allow-list are rejected
//     outright. The image set still decides thumbnailing, so a restrictive
//     deployment that wants image uploads lists the image extensions in its
//     allow-list too.
type Policy struct {
	restrictive bool
	allowed     map[string]struct{}
	images      map[string]struct{}
}

// NewPolicy builds a Policy from configuration.
func NewPolicy(cfg *sc.Config) *Policy {
	p := &Policy{
		restrictive: cfg.PolicyMode == sc.PolicyRestrictive,
		allowed:     toSet(cfg.AllowedExtensions),
		images:      toSet(cfg.ImageExtensions),
	}
	return p
}

// Decide classifies one lower-cased extension.
func (p *Policy) Decide(ext string) Decision {
	if p.restrictive {
		if _, ok := p.allowed[ext]; !ok {
			return Reject
		}
	}
	if _, ok := p.images[ext]; ok {
		return AcceptImage
	}
	return AcceptPlain
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, i := range items {
		s[i] = struct{}{}
	}
	return s
}
