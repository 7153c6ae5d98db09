package prompts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"proposal-autofill/internal/extractor"
	"proposal-autofill/pkg/models"
	"proposal-autofill/pkg/utils"
)

var experiencePattern = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*of\s*experience`)

var knownSkills = []string{
	"JavaScript", "Python", "React", "Node.js", "PHP", "WordPress",
	"HTML", "CSS", "MySQL", "MongoDB", "AWS", "Docker", "Git", "API",
	"REST", "GraphQL", "Machine Learning", "Data Analysis", "Web Design",
	"UI/UX", "Mobile Development",
}

// fieldRules are checked in order; the first hit wins
var fieldRules = []struct {
	keywords []string
	field    string
}{
	{[]string{"react", "vue", "angular"}, "frontend development"},
	{[]string{"node", "express", "api"}, "backend development"},
	{[]string{"full stack"}, "full-stack development"},
	{[]string{"mobile", "ios", "android"}, "mobile development"},
	{[]string{"ui", "ux", "design"}, "UI/UX design"},
	{[]string{"seo", "marketing"}, "digital marketing and SEO"},
	{[]string{"data", "analytics", "machine learning"}, "data analysis and machine learning"},
	{[]string{"ecommerce", "e-commerce", "shopify"}, "e-commerce development"},
	{[]string{"content", "writing", "copywriting"}, "content creation and copywriting"},
}

const defaultField = "web development"

// ExperienceYears reads "N years of experience" from the description, else
// guesses from the seniority wording
func ExperienceYears(description string) int {
	if m := experiencePattern.FindStringSubmatch(description); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	lower := strings.ToLower(description)
	switch {
	case containsAny(lower, "senior", "lead"):
		return 8
	case containsAny(lower, "junior", "entry"):
		return 2
	case containsAny(lower, "mid-level", "intermediate"):
		return 4
	}
	return 5
}

// Field names the line of work the posting is about
func Field(description string) string {
	for _, rule := range fieldRules {
		if containsAny(description, rule.keywords...) {
			return rule.field
		}
	}
	return defaultField
}

// Skills returns up to three known skills mentioned in the description
func Skills(description string) []string {
	var out []string
	for _, s := range knownSkills {
		if containsAny(description, s) {
			out = append(out, s)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

// FallbackProposal writes a proposal from the posting alone. It is used
// when no model output is available and always ends with a signature.
func FallbackProposal(job models.JobPosting, name string) string {
	if strings.TrimSpace(job.Description) == "" {
		return GenericProposal(job.Title, name)
	}
	if name == "" {
		name = extractor.PlaceholderName
	}
	desc := job.Description
	lower := strings.ToLower(desc)
	title := strings.TrimSpace(job.Title)
	if title == "" {
		title = "your"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I have %d+ years of experience in %s and I'm really excited about this %s project. ", ExperienceYears(desc), Field(desc), title)

	if skills := Skills(desc); len(skills) > 0 {
		fmt.Fprintf(&b, "I've worked extensively with %s and I have a strong understanding of the technologies you need. ", strings.Join(skills, ", "))
	} else {
		b.WriteString("I have relevant experience in this field and I'm confident I can deliver excellent results. ")
	}

	switch {
	case containsAny(lower, "ecommerce", "online store"):
		b.WriteString("I have experience building e-commerce solutions and understand the importance of user experience and conversion optimization. ")
	case containsAny(lower, "mobile", "app"):
		b.WriteString("I specialize in mobile development and understand the unique challenges of creating responsive, user-friendly applications. ")
	case containsAny(lower, "api", "backend"):
		b.WriteString("I have extensive experience with backend development and API integration, ensuring scalable and efficient solutions. ")
	}

	b.WriteString("\n\nI always focus on delivering high-quality work on time and keeping you updated throughout the project. I'm available to start immediately and can work within your timeline.\n\n")

	switch {
	case containsAny(lower, "design", "ui", "ux"):
		b.WriteString("I'd love to learn more about your design preferences and target audience. Do you have any specific style guidelines or brand requirements I should follow?")
	case containsAny(lower, "seo", "marketing"):
		b.WriteString("I'd like to understand your current marketing goals and target keywords. What's your main objective with this project?")
	default:
		b.WriteString("I'd love to discuss the technical requirements and your vision for this project. What's the most important aspect you'd like me to focus on?")
	}
	b.WriteString("\n\n")

	b.WriteString("I'm available for a quick call to discuss the details further, or we can continue the conversation through Upwork messages. Looking forward to working with you!\n\n")
	b.WriteString("Best regards,\n")
	b.WriteString(name)
	return b.String()
}

// GenericProposal is the last-resort text used when nothing could be
// extracted from the page
func GenericProposal(title, name string) string {
	if strings.TrimSpace(title) == "" {
		title = "your"
	}
	if name == "" {
		name = extractor.PlaceholderName
	}
	return fmt.Sprintf(`I have over 8 years of experience and I'm really excited about this %s project. I've worked on similar stuff before and I think I can help you out here.

I usually focus on getting things done right the first time and keeping you updated along the way. I'm pretty flexible with timelines and can start whenever you need me.

What's the most important part of this project for you? And do you prefer to chat through Upwork messages or would you rather hop on a quick call to discuss details?

Looking forward to working with you!

Thanks,
%s`, title, name)
}

func containsAny(s string, words ...string) bool {
	return utils.ContainsAnyFold(s, words)
}
