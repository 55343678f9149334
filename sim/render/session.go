// Package render draws the demo page panels for a terminal: the streaming log,
// the aggregate summary and the recommendation cards.
package render

import "strings"

// Lang is a display language.
type Lang string

const (
	LangEnglish Lang = "en"
	LangArabic  Lang = "ar"
)

// Session holds per-viewer display state. It is passed explicitly to every
// renderer rather than kept globally.
type Session struct {
	Lang Lang
}

// NewSession parses lang, falling back to English for anything unrecognized.
func NewSession(lang string) Session {
	switch Lang(strings.ToLower(strings.TrimSpace(lang))) {
	case LangArabic:
		return Session{Lang: LangArabic}
	default:
		return Session{Lang: LangEnglish}
	}
}

// RTL reports whether the session renders right to left.
func (s Session) RTL() bool {
	return s.Lang == LangArabic
}

// ToggleLang returns the other language.
func ToggleLang(l Lang) Lang {
	if l == LangArabic {
		return LangEnglish
	}
	return LangArabic
}

// Label keys.
const (
	LabelLogTitle      = "log_title"
	LabelSummaryTitle  = "summary_title"
	LabelSuccess       = "success"
	LabelAvgLatency    = "avg_latency"
	LabelDistinctItems = "distinct_items"
	LabelActivities    = "activities"
	LabelResultsTitle  = "results_title"
	LabelRank          = "rank"
	LabelItem          = "item"
	LabelArtist        = "artist"
	LabelScore         = "score"
	LabelNoResults     = "no_results"
	LabelToggle        = "toggle"
)

var labels = map[Lang]map[string]string{
	LangEnglish: {
		LabelLogTitle:      "Simulation Log",
		LabelSummaryTitle:  "Fleet Summary",
		LabelSuccess:       "Success",
		LabelAvgLatency:    "Avg latency",
		LabelDistinctItems: "Distinct items",
		LabelActivities:    "Activities",
		LabelResultsTitle:  "Recommendations",
		LabelRank:          "Rank",
		LabelItem:          "Item",
		LabelArtist:        "Artist",
		LabelScore:         "Score",
		LabelNoResults:     "No results yet",
		LabelToggle:        "العربية",
	},
	LangArabic: {
		LabelLogTitle:      "سجل المحاكاة",
		LabelSummaryTitle:  "ملخص الأسطول",
		LabelSuccess:       "النجاح",
		LabelAvgLatency:    "متوسط زمن الاستجابة",
		LabelDistinctItems: "عناصر مميزة",
		LabelActivities:    "الأنشطة",
		LabelResultsTitle:  "التوصيات",
		LabelRank:          "الترتيب",
		LabelItem:          "العنصر",
		LabelArtist:        "الفنان",
		LabelScore:         "الدرجة",
		LabelNoResults:     "لا توجد نتائج بعد",
		LabelToggle:        "English",
	},
}

// Label returns the translated label for key, or key itself when unknown.
func (s Session) Label(key string) string {
	if l, ok := labels[s.Lang][key]; ok {
		return l
	}
	if l, ok := labels[LangEnglish][key]; ok {
		return l
	}
	return key
}
