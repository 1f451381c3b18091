package pipeline

import (
	"fmt"
	"strings"
)

const fetchSystemPrompt = `You are a news curation assistant. You are given a list of raw news articles for a category. Select the most newsworthy ones, discard duplicates and junk, and produce a brief digest.

Output as JSON only, no other text:
{
  "category": "the news category",
  "articles": [
    {
      "title": "article title",
      "description": "one or two sentence description",
      "url": "article url",
      "source": "publisher name",
      "published_at": "ISO 8601 timestamp"
    }
  ],
  "summary": "two or three sentences covering the selected articles"
}`

const analysisSystemPromptTemplate = `You are a news analyst. You are given a set of news articles from a single category. Identify the key insights, patterns across stories, and their implications. Analysis depth: %s.

Output as JSON only, no other text:
{
  "insights": "the main analytical narrative, a few paragraphs",
  "trends": ["short trend statement", ...],
  "implications": ["short implication statement", ...]
}`

const factCheckSystemPromptTemplate = `You are a fact-checking assistant. Extract the most significant factual claims from the summary you are given (at most %d) and assess each one.

Assessment must be one of: Verified, Partially Verified, Unverified, Misleading, False.
Confidence must be one of: High, Medium, Low.

Output as JSON only, no other text:
{
  "verifications": [
    {
      "claim": "the claim text",
      "assessment": "Verified",
      "explanation": "why",
      "confidence": "High",
      "sources": ["supporting source", ...]
    }
  ],
  "summary": "one paragraph on the overall reliability of the material"
}`

const trendSystemPrompt = `You are a trend analyst. You are given a set of news articles. Identify the underlying trends they evidence, and any meta-trends connecting them.

Strength must be one of: Emerging, Growing, Established, Declining.
Timeframe must be one of: Short-term, Medium-term, Long-term.

Output as JSON only, no other text:
{
  "trends": [
    {
      "name": "trend name",
      "description": "what the trend is",
      "strength": "Emerging",
      "timeframe": "Short-term",
      "supporting_articles": ["article title", ...]
    }
  ],
  "meta_trends": ["overarching pattern", ...],
  "summary": "one paragraph overview of the trend landscape"
}`

const writeSystemPromptTemplate = `You are a news digest writer. Compose the final digest from the material you are given. Style: %s. Keep it under %d words, lead with the most important story, and keep the tone factual.

Output as JSON only, no other text:
{
  "summary": "the digest text"
}`

const defaultWriteMaxWords = 400

// formatArticles renders normalized articles as a numbered block for stage
// prompts.
func formatArticles(articles []Article) string {
	var sb strings.Builder
	for i, a := range articles {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Title))
		if a.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", a.Description))
		}
		if a.Source != "" {
			sb.WriteString(fmt.Sprintf("   Source: %s\n", a.Source))
		}
		if a.URL != "" {
			sb.WriteString(fmt.Sprintf("   URL: %s\n", a.URL))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func fetchUserPrompt(req Request, raw []Article) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n", req.Category))
	if req.Query != "" {
		sb.WriteString(fmt.Sprintf("Topic focus: %s\n", req.Query))
	}
	sb.WriteString(fmt.Sprintf("Select up to %d articles.\n\nRaw articles:\n\n", req.Count))
	sb.WriteString(formatArticles(raw))
	return sb.String()
}

func analysisUserPrompt(fetch *FetchRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n\nArticles:\n\n", fetch.Category))
	sb.WriteString(formatArticles(fetch.Articles))
	return sb.String()
}

func factCheckUserPrompt(fetch *FetchRecord) string {
	var sb strings.Builder
	sb.WriteString("Summary to check:\n\n")
	sb.WriteString(fetch.SummaryText)
	sb.WriteString("\n\nSource articles:\n\n")
	sb.WriteString(formatArticles(fetch.Articles))
	return sb.String()
}

func trendUserPrompt(fetch *FetchRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n\nArticles:\n\n", fetch.Category))
	sb.WriteString(formatArticles(fetch.Articles))
	return sb.String()
}

// writeUserPrompt assembles the writer's working material from the fetch
// record plus whatever optional stage summaries succeeded, in scheduling
// order.
func writeUserPrompt(fetch *FetchRecord, sections []contextSection) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category: %s\n\nDigest of fetched articles:\n%s\n\nArticles:\n\n", fetch.Category, fetch.SummaryText))
	sb.WriteString(formatArticles(fetch.Articles))
	for _, sec := range sections {
		if sec.Body == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n%s\n", sec.Title, sec.Body))
	}
	return sb.String()
}

// contextSection is one optional stage's contribution to the writer prompt.
type contextSection struct {
	Title string
	Body  string
}
