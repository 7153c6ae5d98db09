package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/dom"
)

func padTo(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" details", (n-len(s))/8) + strings.Repeat(".", (n-len(s))%8)
}

func TestExtractJobPosting_SelectorMatchVerbatim(t *testing.T) {
	desc := padTo("Need a React developer, 3+ years, for 2 weeks.", 120)
	require.Len(t, desc, 120)

	doc := dom.MustParseHTML(`<html><body>
<h1 data-test="job-title">Senior React Developer for SaaS dashboard</h1>
<div class="job-description">`+desc+`</div>
</body></html>`, "https://www.upwork.com/jobs/~01/apply/")

	job := New().ExtractJobPosting(doc)
	require.NotNil(t, job)
	assert.Equal(t, desc, job.Description)
	assert.Equal(t, "Senior React Developer for SaaS dashboard", job.Title)
	assert.Equal(t, "https://www.upwork.com/jobs/~01/apply/", job.SourceURL)
}

func TestExtractJobPosting_NoQualifyingElement(t *testing.T) {
	docs := []string{
		`<html><body></body></html>`,
		`<div class="job-description">too short</div>`,
		`<div class="job-description">` + padTo("Apply Now to this wonderful job", 200) + `</div>`,
		`<p>` + strings.Repeat("x", 6000) + `</p>`,
	}
	for _, html := range docs {
		assert.Nil(t, New().ExtractJobPosting(dom.MustParseHTML(html, "")))
	}
	assert.Nil(t, New().ExtractJobPosting(nil))
}

func TestExtractJobPosting_DenyListSkipsToNextSelector(t *testing.T) {
	good := padTo("We need a Go engineer to build an ingestion pipeline.", 180)
	doc := dom.MustParseHTML(`<html><body>
<div data-test="job-description">`+padTo("Posted 3 hours ago. Hourly range $20-$40", 150)+`</div>
<div class="job-description-text">`+good+`</div>
</body></html>`, "")

	job := New().ExtractJobPosting(doc)
	require.NotNil(t, job)
	assert.Equal(t, good, job.Description)
}

func TestExtractJobPosting_LongestBlockFallback(t *testing.T) {
	short := padTo("Looking for a logo designer with a strong portfolio.", 130)
	long := padTo("Looking for a data analyst to clean survey results and build a dashboard in Looker.", 400)
	doc := dom.MustParseHTML(`<html><body>
<nav><div>`+padTo("Menu Messages Notifications", 150)+`</div></nav>
<section><p>`+short+`</p></section>
<article><p>`+long+`</p></article>
</body></html>`, "")

	job := New().ExtractJobPosting(doc)
	require.NotNil(t, job)
	assert.Equal(t, long, job.Description)
	assert.Equal(t, DefaultTitle, job.Title)
}

func TestExpandCollapsed(t *testing.T) {
	doc := dom.MustParseHTML(`<div>
<button id="a" aria-expanded="false">more</button>
<button id="b" aria-expanded="false" aria-label="Show more details"></button>
<button id="c" aria-expanded="false">Filters</button>
</div>`, "")

	assert.Equal(t, 2, New().ExpandCollapsed(doc))
	v, _ := dom.First(doc, "#c").Attr("aria-expanded")
	assert.Equal(t, "false", v)
}

func TestExtractTitle_RejectsButtonLabels(t *testing.T) {
	doc := dom.MustParseHTML(`<html><body>
<h1 data-test="job-title">Submit a Proposal</h1>
<h2>Apply</h2>
<h2>Shopify store migration to headless</h2>
</body></html>`, "")

	assert.Equal(t, "Shopify store migration to headless", New().ExtractTitle(doc))
}

func TestResolveDisplayName(t *testing.T) {
	e := New()

	assert.Equal(t, "Jane Q.", e.ResolveDisplayName(nil, " Jane Q. "))

	menu := dom.MustParseHTML(`<div class="nav-user-info"><span class="nav-user-label">  Jane
   Doe </span></div>`, "")
	assert.Equal(t, "Jane Doe", e.ResolveDisplayName(menu, PlaceholderName))

	pattern := dom.MustParseHTML(`<div class="account-box"><span class="account-owner">Maria Lopez</span></div>`, "")
	assert.Equal(t, "Maria Lopez", e.ResolveDisplayName(pattern, ""))

	none := dom.MustParseHTML(`<div class="user-panel">Freelancer Plus</div>`, "")
	assert.Equal(t, PlaceholderName, e.ResolveDisplayName(none, ""))
}

func TestValidate(t *testing.T) {
	e := New()
	assert.False(t, e.Validate(nil))
	job := New().ExtractJobPosting(dom.MustParseHTML(
		`<div class="job-description">`+padTo("Build a REST API in Go", 150)+`</div>`, ""))
	assert.True(t, e.Validate(job))
}

func TestIsApplicationURL(t *testing.T) {
	assert.True(t, IsApplicationURL("https://www.upwork.com/ab/proposals/job/~01/apply/"))
	assert.True(t, IsApplicationURL("https://www.upwork.com/nx/proposals/123"))
	assert.False(t, IsApplicationURL("https://www.upwork.com/nx/find-work/"))
}
