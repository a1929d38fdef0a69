// Package verdict derives a pass/fail/reject/issues verdict from a worker's
// freeform completion report.
//
// A structured marker always wins:
//
//	<!-- conductor: {"result": "fail"} -->
//
// Without a parseable marker the text is scanned for category keywords. Each
// keyword occurrence is checked against the negation guards of its rule and
// discarded when it sits inside a guard match ("0 failed", "no issues",
// "error handling"). Classification never fails; ambiguity resolves to pass.
package verdict

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/steveyegge/conductor/internal/types"
)

// Source records which step produced a verdict.
type Source string

// Verdict sources
const (
	SourceMarker    Source = "marker"
	SourceHeuristic Source = "heuristic"
	SourceDefault   Source = "default"
)

// Result is a verdict plus the evidence behind it.
type Result struct {
	Verdict types.Verdict
	Source  Source
	Match   string // the unguarded keyword occurrence, when heuristic
}

// markerRe matches an HTML comment carrying a JSON object, optionally
// prefixed with a tag ("conductor:", "verdict:").
var markerRe = regexp.MustCompile(`(?s)<!--\s*(?:[A-Za-z][\w-]*\s*:\s*)?(\{.*?\})\s*-->`)

type marker struct {
	Result string `json:"result"`
}

// ParseMarker returns the verdict of the last parseable marker in text.
// Markers that are not valid JSON, lack a result, or carry a value other
// than the four verdicts are ignored.
func ParseMarker(text string) (types.Verdict, bool) {
	matches := markerRe.FindAllStringSubmatch(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		var m marker
		if err := json.Unmarshal([]byte(matches[i][1]), &m); err != nil {
			continue
		}
		v := types.Verdict(strings.ToLower(strings.TrimSpace(m.Result)))
		if v.IsValid() {
			return v, true
		}
	}
	return "", false
}

// Classify returns the verdict for a report from a stage of the given category.
func Classify(text string, category types.Category) types.Verdict {
	return Explain(text, category).Verdict
}

// Explain is Classify with the evidence attached.
func Explain(text string, category types.Category) Result {
	if v, ok := ParseMarker(text); ok {
		return Result{Verdict: v, Source: SourceMarker}
	}
	for _, r := range rulesFor(category) {
		if m := r.firstUnguarded(text); m != "" {
			return Result{Verdict: r.verdict, Source: SourceHeuristic, Match: m}
		}
	}
	return Result{Verdict: types.VerdictPass, Source: SourceDefault}
}

// rule is one keyword family with its negation guards.
type rule struct {
	verdict  types.Verdict
	keywords []*regexp.Regexp
	guards   []*regexp.Regexp
}

type span struct{ start, end int }

// firstUnguarded returns the first keyword occurrence not covered by a guard.
func (r *rule) firstUnguarded(text string) string {
	var guarded []span
	for _, g := range r.guards {
		for _, loc := range g.FindAllStringIndex(text, -1) {
			guarded = append(guarded, span{loc[0], loc[1]})
		}
	}
	for _, k := range r.keywords {
		for _, loc := range k.FindAllStringIndex(text, -1) {
			if !covered(guarded, loc[0], loc[1]) {
				return text[loc[0]:loc[1]]
			}
		}
	}
	return ""
}

func covered(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.start <= start && end <= s.end {
			return true
		}
	}
	return false
}

func rulesFor(c types.Category) []*rule {
	switch c {
	case types.CategoryReview:
		return []*rule{rejectRule}
	case types.CategoryTest:
		return []*rule{failRule, errorRule}
	case types.CategoryRetro:
		return []*rule{issuesRule}
	}
	return nil
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

var rejectRule = &rule{
	verdict: types.VerdictReject,
	keywords: compile(
		`\breject(ed|s|ion|ions)?\b`,
		`\bchanges[\s_]requested\b`,
		`\brequest(ed|ing)?\s+changes\b`,
		`\bnot\s+approved\b`,
		`반려`,
		`거부`,
		`却下`,
		`差し戻し`,
	),
	guards: compile(
		`\b(no|not|never|without|zero|0)\s+([A-Za-z]\w*\s+){0,2}reject(ed|s|ion|ions)?\b`,
		`\bnothing\s+to\s+reject\b`,
		`\breject(ed|ions?)?\s*:\s*(0|none|no)\b`,
		`\bno\s+changes\s+requested\b`,
		`반려\s*(사항\s*)?(없|0)`,
		`거부\s*(사항\s*)?(없|0)`,
		`却下(なし|されません|しません)`,
		`差し戻し(なし|不要)`,
	),
}

var failRule = &rule{
	verdict: types.VerdictFail,
	keywords: compile(
		`\bfail(ed|s|ing|ure|ures)?\b`,
		`실패`,
		`失敗`,
	),
	guards: compile(
		`\b(0|no|zero|without|never)\s+([A-Za-z]\w*\s+){0,2}fail(ed|s|ing|ure|ures)?\b`,
		`\b(did\s+)?not\s+fail(ed|ing)?\b`,
		`\bfail(ed|ures?|s)?\s*[:=]\s*0\b`,
		`\bfailure\s+modes?\b`,
		`\bfail[- ]?safe\b`,
		`\bfail[- ]fast\b`,
		`\bfailing\s+tests?\s+(first|before)\b`,
		`실패\s*[:=]?\s*0([^0-9]|$)`,
		`(^|[^0-9])0\s*(건|개)?\s*실패`,
		`실패\s*(없|0([^0-9]|$))`,
		`失敗\s*[:=]?\s*0([^0-9]|$)`,
		`(^|[^0-9])0\s*(件|個)?\s*失敗`,
		`失敗(なし|しません)`,
	),
}

var errorRule = &rule{
	verdict: types.VerdictFail,
	keywords: compile(
		`\berrors?\b`,
		`에러`,
		`오류`,
		`エラー`,
	),
	guards: compile(
		`\b(0|no|zero|without|never)\s+([A-Za-z]\w*\s+){0,2}errors?\b`,
		`\berrors?\s*[:=]\s*0\b`,
		`\berror[- ]?(handling|free|prone)\b`,
		`\berrors?\s+(messages?|paths?|cases?|types?|codes?|wrapping|returns?|handlers?|branch(es)?|checks?)\b`,
		`\b(handle[sd]?|handling|wrap(s|ped)?|propagat(e|es|ed|ing))\s+([A-Za-z]\w*\s+)?errors?\b`,
		`\berrors?\.\w+`,
		`(에러|오류)\s*(처리|핸들링|메시지|없|0)`,
		`エラー\s*(処理|ハンドリング|メッセージ|なし|0)`,
	),
}

var issuesRule = &rule{
	verdict: types.VerdictIssues,
	keywords: compile(
		`\bissues?\b`,
		`\bimprovements?\b`,
		`\bsuggest(ion|ions|ed)?\b`,
		`\baction\s+items?\b`,
		`\bshould\s+(be\s+)?improve[ds]?\b`,
		`개선`,
		`문제`,
		`改善`,
		`問題`,
	),
	guards: compile(
		`\b(0|no|zero|without|none|not\s+any)\s+([A-Za-z]\w*\s+){0,2}(issues?|improvements?|suggestions?|action\s+items?)\b`,
		`\b(issues?|improvements?|suggestions?|action\s+items?)(\s+\w+)?\s*[:=]\s*(0|none|n/a|no)\b`,
		`\b(issues?|improvements?|suggestions?)\s+(found|identified|remaining)\s*[:=]\s*0\b`,
		`개선\s*(사항|점)?\s*(없|0)`,
		`문제\s*(점)?\s*(없|0)`,
		`改善(点)?\s*(なし|ありません|0)`,
		`問題\s*(なし|ありません|0)`,
	),
}
