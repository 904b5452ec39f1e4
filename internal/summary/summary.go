// Package summary produces templated video summaries from a title, platform
// and duration. It is deterministic apart from the generation timestamp.
package summary

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coursepilot/coursepilot/internal/domain"
)

const (
	maxKeywords        = 10
	maxKeywordTakeaway = 4
	maxTakeaways       = 7
	minKeywordLength   = 4
)

var tokenSeparators = regexp.MustCompile(`[\s\-_.,!?:;()\[\]{}]+`)

//nolint:gochecknoglobals // Static lookup table
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"of": {}, "with": {}, "by": {}, "from": {}, "how": {}, "what": {}, "when": {}, "where": {}, "why": {},
	"tutorial": {}, "guide": {}, "introduction": {}, "course": {}, "lecture": {}, "lesson": {},
	"part": {}, "chapter": {}, "section": {}, "complete": {}, "full": {},
}

// Checked in order; beginner markers win over advanced ones.
//
//nolint:gochecknoglobals // Static lookup tables
var (
	beginnerMarkers = []string{"beginner", "introduction", "basics", "fundamental", "getting started", "101", "intro", "starter"}
	advancedMarkers = []string{"advanced", "expert", "professional", "master", "deep dive", "complete guide", "comprehensive"}
)

// ActionItems are the same for every video.
//
//nolint:gochecknoglobals // Fixed template
var ActionItems = []string{
	"Review the main concepts covered",
	"Practice examples from the video",
	"Take notes on key points for future reference",
}

// ExtractKeywords returns up to 10 topic words from title, in title order.
func ExtractKeywords(title string) []string {
	keywords := []string{}
	for _, tok := range tokenSeparators.Split(strings.ToLower(title), -1) {
		if utf8.RuneCountInString(tok) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// EstimateDifficulty classifies a title by marker substrings.
func EstimateDifficulty(title string) domain.Difficulty {
	lower := strings.ToLower(title)
	for _, m := range beginnerMarkers {
		if strings.Contains(lower, m) {
			return domain.Beginner
		}
	}
	for _, m := range advancedMarkers {
		if strings.Contains(lower, m) {
			return domain.Advanced
		}
	}
	return domain.Intermediate
}

// DurationMinutes rounds seconds to whole minutes, half away from zero.
func DurationMinutes(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int(math.Round(seconds / 60))
}

// QuickSummary is the one-paragraph overview.
func QuickSummary(info domain.VideoInfo) string {
	return fmt.Sprintf("This %d-minute %s video \"%s\" provides comprehensive coverage of its topic. "+
		"The content is structured to deliver key concepts and practical knowledge. "+
		"Viewers can expect to gain actionable insights and understanding of the subject matter.",
		DurationMinutes(info.Duration), info.Platform, info.Title)
}

// KeyTakeaways returns three fixed takeaways plus one per leading keyword, at most 7.
func KeyTakeaways(title string, keywords []string) []string {
	takeaways := []string{
		"Understanding of " + title,
		"Practical knowledge applicable to real-world scenarios",
		"Foundation for further learning in this area",
	}
	for i, kw := range keywords {
		if i == maxKeywordTakeaway {
			break
		}
		takeaways = append(takeaways, "Key concepts related to "+kw)
	}
	if len(takeaways) > maxTakeaways {
		takeaways = takeaways[:maxTakeaways]
	}
	return takeaways
}

// QuizQuestions returns the three review prompts.
func QuizQuestions(title string) []domain.QuizQuestion {
	return []domain.QuizQuestion{
		{
			Question: fmt.Sprintf("What is the main topic covered in \"%s\"?", title),
			Type:     "text",
			Hint:     "Think about the title and key concepts",
		},
		{
			Question: "What are the key takeaways from this video?",
			Type:     "text",
			Hint:     "List 3-5 main points you learned",
		},
		{
			Question: "How can you apply what you learned in practice?",
			Type:     "text",
			Hint:     "Consider real-world applications",
		},
	}
}

// Generate builds the full summary for info, stamped with now.
func Generate(info domain.VideoInfo, now time.Time) domain.VideoSummary {
	keywords := ExtractKeywords(info.Title)
	return domain.VideoSummary{
		Title:           info.Title,
		URL:             info.URL,
		QuickSummary:    QuickSummary(info),
		KeyTakeaways:    KeyTakeaways(info.Title, keywords),
		TopicsCovered:   keywords,
		ActionItems:     append([]string(nil), ActionItems...),
		Difficulty:      EstimateDifficulty(info.Title),
		QuizQuestions:   QuizQuestions(info.Title),
		DurationMinutes: DurationMinutes(info.Duration),
		Platform:        info.Platform,
		Timestamp:       now.UTC(),
		Method:          domain.SummaryMethod,
	}
}
