package strategies

import "github.com/quantmind-br/depdiff/internal/domain"

// ResolveTag maps a version string to a matching tag name: exact match
// first, then a single "v" prefix transform. Anything else is not found.
// Ambiguous schemes ("release-1.0.0", per-package subdirectory tags) are
// deliberately not guessed at; a wrong guess would produce a misleading
// diff, while not-found merely triggers the artifact fallback.
func ResolveTag(version string, tags []string) (domain.ResolvedTag, bool) {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}

	if _, ok := set[version]; ok {
		return domain.ResolvedTag{Version: version, TagName: version}, true
	}

	prefixed := "v" + version
	if _, ok := set[prefixed]; ok {
		return domain.ResolvedTag{Version: version, TagName: prefixed}, true
	}

	return domain.ResolvedTag{}, false
}
