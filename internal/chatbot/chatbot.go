// Package chatbot is a keyword responder for the support chat. It gives no
// medical advice and escalates crisis language to emergency services.
package chatbot

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentCrisis    Intent = "crisis"
	IntentInfoAppt  Intent = "info_appt"
	IntentInfoMeds  Intent = "info_meds"
	IntentMoodNeg   Intent = "mood_neg"
	IntentMoodPos   Intent = "mood_pos"
	IntentSmalltalk Intent = "smalltalk"
)

type Response struct {
	Reply  string  `json:"reply"`
	Intent Intent  `json:"intent"`
	Score  float64 `json:"score"`
}

// Crisis keywords match anywhere in the text, so "killing" or "dying" count too.
var crisisKeywords = []string{"suicide", "kill", "die", "harm", "dead"}

var (
	negativeWords = map[string]bool{"sad": true, "depressed": true, "anxious": true, "worried": true, "bad": true, "panic": true, "stress": true}
	positiveWords = map[string]bool{"happy": true, "good": true, "great": true, "fine": true, "better": true, "thanks": true}
)

var wordRe = regexp.MustCompile(`\w+`)

const moodThreshold = 0.3

// Sentiment scores each negative word -0.5 and each positive word +0.5,
// clamped to [-1, 1].
func Sentiment(text string) float64 {
	score := 0.0
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if negativeWords[w] {
			score -= 0.5
		}
		if positiveWords[w] {
			score += 0.5
		}
	}
	return max(-1, min(1, score))
}

func Respond(text string) Response {
	lower := strings.ToLower(text)

	for _, k := range crisisKeywords {
		if strings.Contains(lower, k) {
			return Response{
				Reply:  "I am concerned about what you're saying. If you are in immediate danger, please call 911 or your local emergency services immediately. This is not medical advice.",
				Intent: IntentCrisis,
				Score:  -1,
			}
		}
	}

	score := Sentiment(text)
	switch {
	case strings.Contains(lower, "appointment"):
		return Response{Reply: "You can view and book appointments in the Appointments section.", Intent: IntentInfoAppt, Score: score}
	case strings.Contains(lower, "medicine"), strings.Contains(lower, "pill"):
		return Response{Reply: "Don't forget to log your medicines in the Dashboard.", Intent: IntentInfoMeds, Score: score}
	case score <= -moodThreshold:
		return Response{Reply: "I'm sorry to hear you're feeling down. Have you tried taking a short walk or practicing deep breathing? (Not medical advice)", Intent: IntentMoodNeg, Score: score}
	case score >= moodThreshold:
		return Response{Reply: "That's great to hear! Keeping a positive mindset helps with recovery.", Intent: IntentMoodPos, Score: score}
	default:
		return Response{Reply: "I see. How else can I help you today?", Intent: IntentSmalltalk, Score: score}
	}
}
