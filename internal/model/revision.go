package model

import (
	"errors"
	"time"
)

// ErrRevisionNotNewer is returned when an edit's timestamp does not advance
// past the current revision. Revisions are immutable; an edit must append a
// strictly newer snapshot, never rewrite an existing one.
var ErrRevisionNotNewer = errors.New("revision is not newer than the current revision")

// CurrentRevision returns the revision with the latest AsOf, or nil when the
// list is empty. The list is not assumed to be sorted.
func CurrentRevision(revisions []Revision) *Revision {
	var current *Revision
	for i := range revisions {
		if current == nil || revisions[i].AsOf.After(current.AsOf) {
			current = &revisions[i]
		}
	}
	return current
}

// ApplyRevision appends rev to the revision list, enforcing that its AsOf is
// strictly greater than the current revision's. The input slice is not
// mutated; a new slice is returned.
func ApplyRevision(revisions []Revision, rev Revision) ([]Revision, error) {
	if current := CurrentRevision(revisions); current != nil && !rev.AsOf.After(current.AsOf) {
		return nil, ErrRevisionNotNewer
	}
	updated := make([]Revision, len(revisions), len(revisions)+1)
	copy(updated, revisions)
	return append(updated, rev), nil
}

// Touch stamps the post's update time and, when publishing for the first
// time, its publication time.
func (p *Post) Touch(now time.Time) {
	p.UpdatedOn = now
	if p.Status == Published && p.PublishedOn == nil {
		published := now
		p.PublishedOn = &published
	}
}
