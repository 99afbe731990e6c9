package property

import (
	"regexp"
	"strings"

	"github.com/vyrodovalexey/avconfig/internal/util"
)

// placeholderPattern matches ${key} and ${key:-default} references.
var placeholderPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ContainsPlaceholder reports whether s contains placeholder syntax.
func ContainsPlaceholder(s string) bool {
	return strings.Contains(s, "${")
}

// ResolvePlaceholders substitutes ${key} and ${key:-default} references
// against the chain. References without a value and without a default
// are left verbatim.
func (s *Sources) ResolvePlaceholders(in string) string {
	return placeholderPattern.ReplaceAllStringFunc(in, func(match string) string {
		key, def, hasDefault := parsePlaceholder(match)
		if v, ok := s.Property(key); ok {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// ResolveRequiredPlaceholders substitutes all placeholder references
// against the chain. A reference with no value and no default fails
// with util.ErrInvalidReference.
func (s *Sources) ResolveRequiredPlaceholders(in string) (string, error) {
	var resolveErr error
	out := placeholderPattern.ReplaceAllStringFunc(in, func(match string) string {
		key, def, hasDefault := parsePlaceholder(match)
		if v, ok := s.Property(key); ok {
			return v
		}
		if hasDefault {
			return def
		}
		if resolveErr == nil {
			resolveErr = util.NewReferenceError(in, key)
		}
		return match
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// parsePlaceholder splits one matched reference into key and default.
func parsePlaceholder(match string) (key, def string, hasDefault bool) {
	groups := placeholderPattern.FindStringSubmatch(match)
	key = groups[1]
	if strings.Contains(match, ":-") {
		return key, groups[2], true
	}
	return key, "", false
}
