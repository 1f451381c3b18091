package pipeline

import (
	"regexp"
	"strings"
)

// Tier-2 extraction works off ordered matcher lists, one per stage kind.
// Priority order decides which heading style wins on ambiguous input, so the
// lists are kept explicit and declarative rather than folded into
// conditionals.

type articleMatcher struct {
	name    string
	extract func(raw string) []Article
}

var fetchMatchers = []articleMatcher{
	{"numbered-heading-link", extractNumberedArticles},
	{"article-heading-link", extractArticleHeadingArticles},
	{"bold-title-link", extractBoldTitleArticles},
	{"bullet-link", extractBulletLinkArticles},
}

type verificationMatcher struct {
	name    string
	extract func(raw string) []Verification
}

var factCheckMatchers = []verificationMatcher{
	{"claim-blocks", extractClaimBlocks},
	{"numbered-bold-claims", extractNumberedBoldClaims},
}

type trendMatcher struct {
	name    string
	extract func(raw string) []Trend
}

var trendMatchers = []trendMatcher{
	{"trend-blocks", extractTrendBlocks},
	{"numbered-bold-trends", extractNumberedBoldTrends},
}

var (
	numberedHeadingRe = regexp.MustCompile(`(?m)^#{1,3}\s+\d+\.\s+\[(.+?)\]\((\S+?)\)`)
	articleHeadingRe  = regexp.MustCompile(`(?m)^#{1,3}\s+Article\s+\d+:?\s+\[(.+?)\]\((\S+?)\)`)
	boldTitleRe       = regexp.MustCompile(`(?i)\*\*Title:?\*\*:?\s*\[(.+?)\]\((\S+?)\)`)
	bulletLinkRe      = regexp.MustCompile(`(?m)^\s*[-*]\s+\[(.+?)\]\((\S+?)\)`)

	sourceFieldRe    = regexp.MustCompile(`(?mi)^.*?\*\*Source:?\*\*:?\s*(.+)$`)
	publishedFieldRe = regexp.MustCompile(`(?mi)^.*?\*\*Published(?:\s+At)?:?\*\*:?\s*(.+)$`)
	descFieldRe      = regexp.MustCompile(`(?mi)^.*?\*\*Description:?\*\*:?\s*(.+)$`)

	categoryRe       = regexp.MustCompile(`(?i)#\s+(.+?)\s+News|Top Headlines in\s+(\S+)`)
	summarySectionRe = regexp.MustCompile(`(?is)#{2,3}\s*(?:Summary|Key Points)\s*:?\s*\n(.+?)(?:\n#{1,3}\s|\z)`)

	// Labeled fields appear as "Label: x", "**Label**: x" or "**Label:** x";
	// the colon itself is mandatory so that e.g. "Trends" never matches "Trend".
	claimRe         = regexp.MustCompile(`(?mi)^(?:\*\*)?Claim(?:\s*\d+)?(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	numberedBoldRe  = regexp.MustCompile(`(?m)^\d+\.\s+\*\*(.+?)\*\*:?\s*`)
	assessmentRe    = regexp.MustCompile(`(?mi)^(?:\*\*)?Assessment(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	explanationRe   = regexp.MustCompile(`(?si)(?:\*\*)?Explanation(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+?)(?:\n\n|\n(?:\*\*)?(?:Claim|Confidence|Sources)|\z)`)
	confidenceRe    = regexp.MustCompile(`(?mi)^(?:\*\*)?Confidence(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	sourcesFieldRe  = regexp.MustCompile(`(?si)(?:\*\*)?Sources(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+?)(?:\n\n|\n(?:\*\*)?Claim|\z)`)
	trendNameRe     = regexp.MustCompile(`(?mi)^(?:\*\*)?Trend(?:\s*\d+)?(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	descriptionRe   = regexp.MustCompile(`(?si)(?:\*\*)?Description(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+?)(?:\n\n|\n(?:\*\*)?(?:Strength|Trend|Timeframe|Supporting)|\z)`)
	strengthRe      = regexp.MustCompile(`(?mi)^(?:\*\*)?Strength(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	timeframeRe     = regexp.MustCompile(`(?mi)^(?:\*\*)?Timeframe(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	supportingRe    = regexp.MustCompile(`(?si)(?:\*\*)?Supporting\s+Articles(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+?)(?:\n\n|\n(?:\*\*)?(?:Timeframe|Trend)|\z)`)
	metaTrendsRe    = regexp.MustCompile(`(?si)(?:\*\*)?Meta[- ]Trends(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+?)(?:\n\n|\z)`)
	summaryLabelRe  = regexp.MustCompile(`(?si)(?:\*\*)?Summary(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)\z`)
	listItemSplitRe = regexp.MustCompile(`\n-|\n\d+\.|,`)
	listLineSplitRe = regexp.MustCompile(`\n-|\n\d+\.`)

	analysisTrendsRe       = regexp.MustCompile(`(?si)(?:Key\s+)?Trends\s*:(.+?)(?:\n\n|\n[A-Z#*]|\z)`)
	analysisImplicationsRe = regexp.MustCompile(`(?si)(?:Key\s+)?Implications\s*:(.+?)(?:\n\n|\n[A-Z#*]|\z)`)
)

// windowAfter bounds a field search to a fixed slice of text after a block
// heading. The window can reach into a following block, so a block missing a
// field may pick up its neighbor's value rather than the default.
func windowAfter(raw string, pos, size int) string {
	end := pos + size
	if end > len(raw) {
		end = len(raw)
	}
	return raw[pos:end]
}

func fieldValue(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), "* ")
}

func splitListItems(re *regexp.Regexp, s string) []string {
	var items []string
	for _, part := range re.Split(s, -1) {
		part = strings.Trim(strings.TrimSpace(part), "-*• \t")
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func headingArticles(raw string, headingRe *regexp.Regexp) []Article {
	matches := headingRe.FindAllStringSubmatchIndex(raw, -1)
	articles := make([]Article, 0, len(matches))

	for i, m := range matches {
		title := raw[m[2]:m[3]]
		url := raw[m[4]:m[5]]

		blockEnd := len(raw)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		block := raw[m[1]:blockEnd]

		articles = append(articles, Article{
			Title:       strings.TrimSpace(title),
			Description: blockDescription(block),
			URL:         strings.TrimSpace(url),
			Source:      fieldValue(sourceFieldRe, block),
			PublishedAt: fieldValue(publishedFieldRe, block),
		})
	}
	return articles
}

// blockDescription returns an explicit **Description:** field if present,
// otherwise the first plain prose line of the block.
func blockDescription(block string) string {
	if desc := fieldValue(descFieldRe, block); desc != "" {
		return desc
	}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**") || strings.HasPrefix(line, "[") {
			continue
		}
		return line
	}
	return ""
}

func extractNumberedArticles(raw string) []Article {
	return headingArticles(raw, numberedHeadingRe)
}

func extractArticleHeadingArticles(raw string) []Article {
	return headingArticles(raw, articleHeadingRe)
}

func extractBoldTitleArticles(raw string) []Article {
	return headingArticles(raw, boldTitleRe)
}

func extractBulletLinkArticles(raw string) []Article {
	return headingArticles(raw, bulletLinkRe)
}

func extractCategory(raw string) string {
	m := categoryRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	category := m[1]
	if category == "" {
		category = m[2]
	}
	return strings.ToLower(strings.TrimSpace(category))
}

// extractSummarySection pulls a dedicated summary/key-points section out of
// markdown output; without one, the whole trimmed text serves as summary.
func extractSummarySection(raw string) string {
	if m := summarySectionRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := summaryLabelRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

func extractClaimBlocks(raw string) []Verification {
	matches := claimRe.FindAllStringSubmatchIndex(raw, -1)
	return claimsFromMatches(raw, matches)
}

func extractNumberedBoldClaims(raw string) []Verification {
	matches := numberedBoldRe.FindAllStringSubmatchIndex(raw, -1)
	return claimsFromMatches(raw, matches)
}

func claimsFromMatches(raw string, matches [][]int) []Verification {
	verifications := make([]Verification, 0, len(matches))

	for _, m := range matches {
		claim := strings.Trim(strings.TrimSpace(raw[m[2]:m[3]]), "* ")
		if claim == "" {
			continue
		}
		window := windowAfter(raw, m[1], 1000)

		assessment := fieldValue(assessmentRe, window)
		if assessment == "" {
			assessment = "Unverified"
		}

		confidence := fieldValue(confidenceRe, window)
		if confidence == "" {
			confidence = "Low"
		}

		sources := []string{}
		if s := fieldValue(sourcesFieldRe, window); s != "" {
			sources = splitListItems(listItemSplitRe, s)
		}

		verifications = append(verifications, Verification{
			Claim:       claim,
			Assessment:  assessment,
			Explanation: fieldValue(explanationRe, window),
			Confidence:  confidence,
			Sources:     sources,
		})
	}
	return verifications
}

func extractTrendBlocks(raw string) []Trend {
	matches := trendNameRe.FindAllStringSubmatchIndex(raw, -1)
	return trendsFromMatches(raw, matches)
}

func extractNumberedBoldTrends(raw string) []Trend {
	matches := numberedBoldRe.FindAllStringSubmatchIndex(raw, -1)
	return trendsFromMatches(raw, matches)
}

func trendsFromMatches(raw string, matches [][]int) []Trend {
	trends := make([]Trend, 0, len(matches))

	for _, m := range matches {
		name := strings.Trim(strings.TrimSpace(raw[m[2]:m[3]]), "* ")
		if name == "" {
			continue
		}
		window := windowAfter(raw, m[1], 1000)

		strength := fieldValue(strengthRe, window)
		if strength == "" {
			strength = "Emerging"
		}

		timeframe := fieldValue(timeframeRe, window)
		if timeframe == "" {
			timeframe = "Short-term"
		}

		supporting := []string{}
		if s := fieldValue(supportingRe, window); s != "" {
			supporting = splitListItems(listItemSplitRe, s)
		}

		trends = append(trends, Trend{
			Name:               name,
			Description:        fieldValue(descriptionRe, window),
			Strength:           strength,
			Timeframe:          timeframe,
			SupportingArticles: supporting,
		})
	}
	return trends
}

func extractMetaTrends(raw string) []string {
	m := metaTrendsRe.FindStringSubmatch(raw)
	if m == nil {
		return []string{}
	}
	items := splitListItems(listLineSplitRe, m[1])
	if items == nil {
		return []string{}
	}
	return items
}

func extractLabeledList(raw string, re *regexp.Regexp) []string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return []string{}
	}
	items := splitListItems(listLineSplitRe, m[1])
	if items == nil {
		return []string{}
	}
	return items
}
