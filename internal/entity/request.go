package entity

import "strings"

// Request is a validated-on-submit download request.
type Request struct {
	SourceURL   string
	Kind        JobKind
	Options     Options
	Synchronous bool
}

// Validate checks the request shape. It never touches the store.
func (r *Request) Validate() error {
	r.SourceURL = strings.TrimSpace(r.SourceURL)
	if r.SourceURL == "" {
		return Invalid("url", "URL is required")
	}
	if r.Kind == "" {
		r.Kind = KindSingle
	}
	if !r.Kind.Valid() {
		return Invalid("kind", "unknown kind %q", r.Kind)
	}

	o := r.Options
	if o.QualityCeiling < 0 {
		return Invalid("quality", "must not be negative")
	}
	if o.MaxItems < 0 {
		return Invalid("max_items", "must not be negative")
	}
	if o.SizeLimitBytes < 0 {
		return Invalid("size_limit", "must not be negative")
	}
	if r.Kind == KindSpecificQuality && o.QualityCeiling == 0 {
		return Invalid("quality", "a numeric height is required for specific_quality")
	}
	if r.Kind == KindPlaylist && r.Synchronous {
		return Invalid("async", "playlist downloads are always asynchronous")
	}
	return nil
}
