// Package uid generates string identifiers: idea ids and correlation ids.
package uid

// StringID produces unique string identifiers.
type StringID interface {
	Generate() string
}

type prefixed struct {
	gen    StringID
	prefix string
}

// WithPrefix returns a generator whose ids start with prefix, so ids minted
// by different entry points can be told apart in logs.
func WithPrefix(gen StringID, prefix string) StringID {
	if prefix == "" {
		return gen
	}
	return prefixed{gen: gen, prefix: prefix}
}

func (p prefixed) Generate() string {
	return p.prefix + p.gen.Generate()
}
