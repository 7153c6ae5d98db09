package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<fieldset disabled><input id="locked" type="text"></fieldset>
<div style="display: none"><textarea id="ghost"></textarea></div>
<label for="rate">What is your hourly rate?</label>
<input id="rate" type="text" value="40">
<textarea id="letter">old text</textarea>
<button id="more" aria-expanded="false">more</button>
</body></html>`

func TestHTMLDocument_ReadSide(t *testing.T) {
	doc := MustParseHTML(fixture, "https://www.upwork.com/ab/proposals/job/~1/apply/")

	rate := First(doc, "#rate")
	require.NotNil(t, rate)
	assert.Equal(t, "input", rate.Tag())
	assert.Equal(t, "40", rate.Value())
	assert.True(t, rate.Visible())
	assert.False(t, rate.Disabled())
	assert.Equal(t, "What is your hourly rate?", TrimmedText(rate.PrevSibling()))

	assert.True(t, First(doc, "#locked").Disabled())
	assert.False(t, First(doc, "#ghost").Visible())
	assert.Equal(t, "old text", First(doc, "#letter").Value())
	assert.Nil(t, First(doc, "#missing"))
	assert.Equal(t, ReadyStateComplete, doc.ReadyState())
}

func TestHTMLDocument_SetValueRecordsEvents(t *testing.T) {
	doc := MustParseHTML(fixture, "")
	letter := First(doc, "#letter")

	require.NoError(t, letter.SetValue("Hello,\nnew letter"))
	assert.Equal(t, "Hello,\nnew letter", First(doc, "#letter").Value())

	events := doc.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "input", events[0].Type)
	assert.Equal(t, "change", events[1].Type)
	assert.Equal(t, "#letter", events[0].Target)

	assert.Error(t, First(doc, "#more").SetValue("x"))
}

func TestHTMLDocument_ClickExpands(t *testing.T) {
	doc := MustParseHTML(fixture, "")
	require.NoError(t, First(doc, "#more").Click())

	v, _ := First(doc, "#more").Attr("aria-expanded")
	assert.Equal(t, "true", v)
}

func TestFieldKeyAndLookup(t *testing.T) {
	doc := MustParseHTML(fixture, "")
	rate := First(doc, "#rate")

	key, err := FieldKey(rate)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	again, err := FieldKey(First(doc, "#rate"))
	require.NoError(t, err)
	assert.Equal(t, key, again)

	found := Lookup(doc, key)
	require.NotNil(t, found)
	assert.Equal(t, "40", found.Value())
	assert.Nil(t, Lookup(doc, "no-such-key"))
	assert.Nil(t, Lookup(doc, ""))
}

func TestClosestAndAncestors(t *testing.T) {
	doc := MustParseHTML(`<section class="questions"><div><p><input id="q"></p></div></section>`, "")
	q := First(doc, "#q")

	assert.Len(t, Ancestors(q, 2), 2)
	assert.NotNil(t, Closest(q, "section.questions"))
	assert.Nil(t, Closest(q, "form"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanText("  Jane \n\t Doe "))
}
