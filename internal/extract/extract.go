// Package extract parses document content for embedded media references
// and computes reference-set diffs between document revisions.
package extract

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// imageEmbedPattern matches markdown image embeds and captures the target
// locator, e.g. ![alt](https://host/media/<id>) or ![](/media/<id>).
var imageEmbedPattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^)\s]+)(?:\s+"[^"]*")?\s*\)`)

// ImageRefs scans document content and returns the media identifiers of all
// recognized image embeds, in document order. Duplicates are preserved;
// callers treating the result as a set should use RefSet. Embeds whose
// locator does not carry a parseable media identifier are silently skipped,
// so extraction never fails: malformed content just yields fewer references.
// Empty content yields an empty result.
func ImageRefs(content string) []uuid.UUID {
	if content == "" {
		return nil
	}

	var refs []uuid.UUID
	for _, match := range imageEmbedPattern.FindAllStringSubmatch(content, -1) {
		id, ok := mediaIDFromLocator(match[1])
		if !ok {
			continue
		}
		refs = append(refs, id)
	}
	return refs
}

// RefSet scans content like ImageRefs but collapses the result into a set.
func RefSet(content string) map[uuid.UUID]struct{} {
	refs := ImageRefs(content)
	set := make(map[uuid.UUID]struct{}, len(refs))
	for _, id := range refs {
		set[id] = struct{}{}
	}
	return set
}

// mediaIDFromLocator extracts the media identifier from a store locator.
// The identifier is the trailing UUID path segment of the locator, with any
// query string, fragment, or file extension stripped. Locators without a
// UUID segment are not media embeds and are rejected.
func mediaIDFromLocator(locator string) (uuid.UUID, bool) {
	// Drop query and fragment; they never carry the identifier.
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	locator = strings.TrimSuffix(locator, "/")

	// Walk path segments from the end so mixed locators such as
	// /media/<id>/thumbnail still resolve.
	segments := strings.Split(locator, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := segments[i]
		if dot := strings.LastIndexByte(segment, '.'); dot >= 0 {
			segment = segment[:dot]
		}
		if id, err := uuid.Parse(segment); err == nil {
			return id, true
		}
	}

	return uuid.Nil, false
}
