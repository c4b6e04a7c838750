package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b", Normalize(" a \n b "))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "x y z", Normalize("x\n\n\ty   z"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc  ", 10))
	assert.Equal(t, "a ", Truncate("a \n b c", 2))
	assert.Equal(t, strings.Repeat("x", 500), Truncate(strings.Repeat("x", 900), DescriptionLimit))
	assert.Equal(t, "héé", Truncate("héééé", 3))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestFirstMatch_FirstNonEmptyLocatorWins(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="l1"> </div>
		<div class="l2">Acme</div>
		<div class="l3">Other</div>
	</body></html>`)

	assert.Equal(t, "Acme", FirstMatch(doc, ".l1", ".l2", ".l3"))
	assert.Equal(t, "Other", FirstMatch(doc, ".missing", ".l3", ".l2"))
	assert.Equal(t, "", FirstMatch(doc, ".missing", ".l1"))
}

func TestFirstMatch_SkipsInvalidLocators(t *testing.T) {
	doc := mustDoc(t, `<html><body><h1> Title </h1></body></html>`)

	assert.Equal(t, "Title", FirstMatch(doc, "[[[", "div:unknown-pseudo(", "h1"))
	assert.False(t, Valid("[[["))
	assert.True(t, Valid(`[class*="company"] a`))
}

func TestFirstMatch_NilDocument(t *testing.T) {
	assert.Equal(t, "", FirstMatch(nil, "h1"))
	assert.Nil(t, All(nil, "a"))
}

func TestAll(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="chip-wrap"><a>Go</a><a> </a><a>Docker</a></div>
		<div class="key-skill"><a>Go</a></div>
	</body></html>`)

	assert.Equal(t, []string{"Go", "Docker", "Go"}, All(doc, ".chip-wrap a", ".key-skill a"))
}

func TestJobPostings(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<script type="application/ld+json">{ not json</script>
		<script type="application/ld+json">{"@type":"Organization","name":"Ignored"}</script>
		<script type="application/ld+json">[{"@type":"BreadcrumbList"},{"@type":"JobPosting","title":"Backend Engineer","hiringOrganization":{"@type":"Organization","name":"Acme"}}]</script>
	</head><body></body></html>`)

	got := JobPostings(doc, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Backend Engineer", got[0].Title)
	assert.Equal(t, "Acme", got[0].HiringOrganization)
}

func TestJobPostings_GraphAndUntypedOrder(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<script type="application/ld+json">{"title":"Loose","hiringOrganization":"Loose Co"}</script>
		<script type="application/ld+json">{"@graph":[{"@type":["Thing","JobPosting"],"title":"Typed"}]}</script>
	</head></html>`)

	got := JobPostings(doc, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "Typed", got[0].Title)
	assert.Equal(t, "Loose Co", got[1].HiringOrganization)
}

func TestTitleSegments(t *testing.T) {
	assert.Equal(t, []string{"Senior Engineer", "Acme Corp", "LinkedIn"}, TitleSegments("Senior Engineer - Acme Corp | LinkedIn"))
	assert.Equal(t, []string{"Full-Stack Dev", "Globex"}, TitleSegments("Full-Stack Dev – Globex"))
	assert.Nil(t, TitleSegments("  "))
}

func TestCompanyFromAt(t *testing.T) {
	assert.Equal(t, "Acme Corp", CompanyFromAt("Senior Engineer at Acme Corp | LinkedIn"))
	assert.Equal(t, "Acme", CompanyFromAt("Engineer at Acme - Remote"))
	assert.Equal(t, "", CompanyFromAt("Senior Engineer - Acme Corp | LinkedIn"))
}

func TestPageTitle(t *testing.T) {
	doc := mustDoc(t, "<html><head><title>\n A  |  B \n</title></head></html>")
	assert.Equal(t, "A | B", PageTitle(doc))
}
