package cache

import (
	"reflect"
	"strings"
	"time"
)

// MaxTTL is the ceiling applied by DefaultTTLScorer.
const MaxTTL = time.Hour

// Shape is a small structural summary of a cached value.
// It is all the TTL heuristic is allowed to look at.
type Shape struct {
	// IsList reports whether the value is a list of items.
	IsList bool
	// Length is the number of items when IsList is set.
	Length int
	// Status is the lifecycle status of a single entity, if any.
	Status string
	// HasCreatedAt reports whether the value carries a creation timestamp.
	HasCreatedAt bool
	// HasUpdatedAt reports whether the value carries an update timestamp.
	HasUpdatedAt bool
}

// Shaper is implemented by values that describe their own Shape.
type Shaper interface {
	CacheShape() Shape
}

// TTLScorer turns a base lifetime and a Shape into an entry TTL.
type TTLScorer func(base time.Duration, s Shape) time.Duration

// DefaultTTLScorer lengthens the lifetime of values that change rarely.
// Large lists live 2x (over 100 items) or 3x (over 1000 items) longer,
// released or archived entities 5x, and entities that were never updated 3x.
func DefaultTTLScorer(base time.Duration, s Shape) time.Duration {
	ttl := base

	if s.IsList {
		switch {
		case s.Length > 1000:
			ttl *= 3
		case s.Length > 100:
			ttl *= 2
		}
	}

	switch strings.ToLower(s.Status) {
	case "released", "archived":
		ttl *= 5
	}

	if s.HasCreatedAt && !s.HasUpdatedAt {
		ttl *= 3
	}

	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	return ttl
}

// shapeOf asks the value for its Shape. Plain slices are summarised by length;
// anything else gets the zero Shape.
func shapeOf(v any) Shape {
	if s, ok := v.(Shaper); ok {
		return s.CacheShape()
	}
	if v == nil {
		return Shape{}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return Shape{IsList: true, Length: rv.Len()}
	}
	return Shape{}
}
