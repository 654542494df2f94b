package extract

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embed(id uuid.UUID) string {
	return fmt.Sprintf("![screenshot](https://cdn.example.com/media/%s)", id)
}

func TestImageRefsEmptyContent(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ImageRefs(""))
}

func TestImageRefsNoEmbeds(t *testing.T) {
	t.Parallel()

	content := `# Meeting notes

Some *markdown* with [a regular link](https://example.com/page) and code:

	fmt.Println("hello")

- item one
- item two`

	assert.Empty(t, ImageRefs(content))
}

func TestImageRefsMixedContent(t *testing.T) {
	t.Parallel()

	first := uuid.New()
	second := uuid.New()

	content := "intro text\n\n" +
		embed(first) + "\n\n" +
		"a [link](https://example.com) between embeds\n\n" +
		fmt.Sprintf("![diagram](/media/%s.png \"the diagram\")\n", second) +
		"trailing text"

	refs := ImageRefs(content)
	assert.Equal(t, []uuid.UUID{first, second}, refs)
}

func TestImageRefsDuplicatesPreserved(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	content := embed(id) + "\n" + embed(id)

	refs := ImageRefs(content)
	assert.Equal(t, []uuid.UUID{id, id}, refs)

	set := RefSet(content)
	assert.Len(t, set, 1)
	_, ok := set[id]
	assert.True(t, ok)
}

func TestImageRefsLocatorShapes(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	testCases := []struct {
		name    string
		locator string
		want    bool
	}{
		{name: "plain media path", locator: "/media/" + id.String(), want: true},
		{name: "full url", locator: "https://cdn.example.com/media/" + id.String(), want: true},
		{name: "extension suffix", locator: "/media/" + id.String() + ".webp", want: true},
		{name: "query string", locator: "/media/" + id.String() + "?w=400", want: true},
		{name: "fragment", locator: "/media/" + id.String() + "#top", want: true},
		{name: "variant sub-path", locator: "/media/" + id.String() + "/thumbnail", want: true},
		{name: "trailing slash", locator: "/media/" + id.String() + "/", want: true},
		{name: "no identifier", locator: "https://example.com/images/logo.png", want: false},
		{name: "truncated identifier", locator: "/media/" + id.String()[:8], want: false},
		{name: "bare word", locator: "attachment", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			content := fmt.Sprintf("![x](%s)", tc.locator)
			refs := ImageRefs(content)
			if tc.want {
				require.Len(t, refs, 1)
				assert.Equal(t, id, refs[0])
			} else {
				assert.Empty(t, refs)
			}
		})
	}
}

func TestImageRefsMalformedEmbedsSkipped(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	content := "![unclosed](/media/not-finished\n" +
		"![no target]()\n" +
		embed(id)

	refs := ImageRefs(content)
	assert.Equal(t, []uuid.UUID{id}, refs)
}

// Stripping all embed markup from arbitrary content must yield no references.
func TestImageRefsStrippedContentIsEmpty(t *testing.T) {
	t.Parallel()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	content := "notes\n"
	for _, id := range ids {
		content += embed(id) + "\nmore prose\n"
	}
	require.Len(t, ImageRefs(content), len(ids))

	stripped := imageEmbedPattern.ReplaceAllString(content, "")
	assert.Empty(t, ImageRefs(stripped))
}
