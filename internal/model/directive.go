package model

import "time"

// Origin records where an effective directive came from
type Origin int

const (
	// OriginNone means no directive applied
	OriginNone Origin = iota
	// OriginClass means the directive was declared on the type
	OriginClass
	// OriginMethod means the directive was declared on the method
	OriginMethod
)

// String returns the origin name
func (o Origin) String() string {
	switch o {
	case OriginClass:
		return "class"
	case OriginMethod:
		return "method"
	default:
		return "none"
	}
}

// Directive is the memoization setting of a type or method.
type Directive struct {
	// Enabled reports whether calls are memoized
	Enabled bool

	// TTLSeconds is the declared lifetime; nil when the directive omits ttl
	TTLSeconds *int

	// Origin is where the directive was declared
	Origin Origin

	// Seconds is the resolved lifetime of an enabled directive
	Seconds int
}

// TTL returns the resolved lifetime as a duration
func (d Directive) TTL() time.Duration {
	return time.Duration(d.Seconds) * time.Second
}
