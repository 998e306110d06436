package juliusprotocol

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// sequence returns v as an ordered list. The markup tree holds a single
// occurrence of a repeatable element as a scalar or *Map and several
// occurrences as a []Value; downstream code only ever sees the list form.
func sequence(v Value) []Value {
	switch t := v.(type) {
	case nil:
		return nil
	case []Value:
		return t
	default:
		return []Value{t}
	}
}

// first returns the first occurrence of a possibly repeated value.
func first(v Value) Value {
	if list, ok := v.([]Value); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// text returns the attribute or child name of v as text. Missing names and
// non-text values yield "".
func text(v Value, name string) string {
	m, ok := first(v).(*Map)
	if !ok {
		return ""
	}
	raw, _ := m.Get(name)
	s, _ := first(raw).(string)
	return s
}

// number parses the attribute name of v as a float. Text that does not parse,
// including a missing attribute, yields NaN.
func number(v Value, name string) float64 {
	return parseNumber(text(v, name))
}

// parseNumber parses s as a float. Out-of-range text saturates to ±Inf.
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func decodeEngineInfo(v Value) EngineInfo {
	return EngineInfo{
		Conf:    text(v, "CONF"),
		Type:    text(v, "TYPE"),
		Version: text(v, "VERSION"),
	}
}

func decodeGMM(v Value) GMMResult {
	return GMMResult{
		CMScore: number(v, "CMSCORE"),
		Result:  text(v, "RESULT"),
	}
}

func decodeGrammar(v Value) GrammarStatus {
	return GrammarStatus{
		Reason: text(v, "REASON"),
		Status: text(v, "STATUS"),
	}
}

func decodeInput(v Value) InputStatus {
	return InputStatus{
		Status: InputState(text(v, "STATUS")),
		Time:   number(v, "TIME"),
	}
}

func decodeInputParam(v Value) InputParam {
	return InputParam{
		Frames: number(v, "FRAMES"),
		Msec:   number(v, "MSEC"),
	}
}

func decodeRejected(v Value) Rejected {
	return Rejected{Reason: text(v, "REASON")}
}

func decodeSystemInfo(v Value) SystemInfo {
	return SystemInfo{Process: ProcessState(text(v, "PROCESS"))}
}

func decodeRecognitionOutput(v Value) RecognitionOutput {
	var shypo Value
	if m, ok := first(v).(*Map); ok {
		shypo, _ = m.Get("SHYPO")
	}

	items := sequence(shypo)
	out := RecognitionOutput{Hypotheses: make([]Hypothesis, 0, len(items))}
	for _, item := range items {
		out.Hypotheses = append(out.Hypotheses, decodeHypothesis(item))
	}
	return out
}

func decodeHypothesis(v Value) Hypothesis {
	h := Hypothesis{
		Gram:  text(v, "GRAM"),
		Rank:  number(v, "RANK"),
		Score: number(v, "SCORE"),
	}

	var whypo Value
	if m, ok := v.(*Map); ok {
		whypo, _ = m.Get("WHYPO")
	}
	items := sequence(whypo)
	h.Words = make([]WordHypothesis, 0, len(items))
	for _, item := range items {
		h.Words = append(h.Words, WordHypothesis{
			ClassID: text(item, "CLASSID"),
			CM:      number(item, "CM"),
			Phone:   text(item, "PHONE"),
			Word:    text(item, "WORD"),
		})
	}
	return h
}
