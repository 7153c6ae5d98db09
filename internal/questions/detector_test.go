package questions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/dom"
	"proposal-autofill/pkg/models"
)

const applyForm = `<html><body><form>
<div class="cover-letter-area">
  <label id="cover_letter_label">Cover Letter</label>
  <textarea aria-labelledby="cover_letter_label" class="inner-textarea"></textarea>
</div>
<div data-test="additional-questions">
  <h3>Additional questions</h3>
  <div class="q">
    <label for="q1">What is your hourly rate?</label>
    <input id="q1" type="text" required>
  </div>
  <div class="q">
    <p>Describe your recent experience with similar projects</p>
    <textarea id="q2"></textarea>
  </div>
  <div class="q">
    <span>Can you attach your proposal portfolio?</span>
    <textarea id="q3"></textarea>
  </div>
  <div><textarea id="q4" name="proposal_extra"></textarea></div>
  <div style="display:none"><label for="q5">What is hidden here?</label><textarea id="q5"></textarea></div>
  <div><input id="q6" type="text" placeholder="Your availability per week?"></div>
  <div><input id="q7" type="text"></div>
  <div><input id="q8" type="checkbox"></div>
  <div><label for="q9">What is your experience? (disabled)</label><input id="q9" disabled></div>
</div>
</form></body></html>`

func labels(qs []models.ApplicationQuestion) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Label
	}
	return out
}

func TestDetect_ClassifiesAndOrders(t *testing.T) {
	doc := dom.MustParseHTML(applyForm, "https://www.upwork.com/ab/proposals/job/~1/apply/")

	qs := NewDetector().Detect(doc)
	require.Len(t, qs, 3)
	assert.Equal(t, []string{
		"What is your hourly rate?",
		"Describe your recent experience with similar projects",
		"Your availability per week?",
	}, labels(qs))

	assert.Equal(t, models.InputShort, qs[0].InputKind)
	assert.True(t, qs[0].Required)
	assert.Equal(t, models.InputLong, qs[1].InputKind)
	assert.False(t, qs[1].Required)

	for _, q := range qs {
		require.NotEmpty(t, q.FieldKey)
		assert.NotNil(t, dom.Lookup(doc, q.FieldKey))
	}
	assert.Equal(t, "q1", dom.AttrOr(dom.Lookup(doc, qs[0].FieldKey), "id"))
}

func TestDetect_NeverReturnsCoverLetterFields(t *testing.T) {
	docs := []string{
		applyForm,
		`<section class="questions-area">
			<div><label for="a">Cover letter for this job?</label><textarea id="a"></textarea></div>
			<div><label for="b">Why is your proposal the best?</label><textarea id="b"></textarea></div>
			<div><textarea id="c" placeholder="Write your cover letter?"></textarea></div>
		</section>`,
		`<div class="additional-questions"><div aria-label="Proposal settings"><label for="d">What is your timeline?</label><input id="d"></div></div>`,
	}

	for _, html := range docs {
		for _, q := range NewDetector().Detect(dom.MustParseHTML(html, "")) {
			lower := strings.ToLower(q.Label)
			assert.NotContains(t, lower, "cover letter")
			assert.NotContains(t, lower, "proposal")
		}
	}
}

func TestDetect_OnlyInsideQuestionsContainer(t *testing.T) {
	doc := dom.MustParseHTML(`<form>
<label for="x">What is your hourly rate?</label><input id="x" type="text">
</form>`, "")
	assert.Empty(t, NewDetector().Detect(doc))
}

func TestDetect_HeadingMarksContainer(t *testing.T) {
	doc := dom.MustParseHTML(`<form><section>
<h4>Additional Questions</h4>
<label for="start">How soon can you start?</label><input id="start">
</section></form>`, "")

	qs := NewDetector().Detect(doc)
	require.Len(t, qs, 1)
	assert.Equal(t, "How soon can you start?", qs[0].Label)
	assert.NotNil(t, InContainer(dom.First(doc, "#start")))
}

func TestLooksLikeQuestion(t *testing.T) {
	assert.True(t, LooksLikeQuestion("Rate?"))
	assert.True(t, LooksLikeQuestion("Describe your approach"))
	assert.False(t, LooksLikeQuestion("Portfolio link"))
	assert.False(t, keepLabel("Question 3"))
}
