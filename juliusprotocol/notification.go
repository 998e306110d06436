package juliusprotocol

import (
	"math"
	"strings"
)

// Kind identifies a notification. Tag kinds use the engine's own tag names.
type Kind string

const (
	// Signal-only kinds.
	KindStartProcess      Kind = "STARTPROC"
	KindEndProcess        Kind = "ENDPROC"
	KindStartRecognition  Kind = "STARTRECOG"
	KindEndRecognition    Kind = "ENDRECOG"
	KindRecognitionFailed Kind = "RECOGFAIL"

	// Kinds with a payload.
	KindEngineInfo         Kind = "ENGINEINFO"
	KindGMM                Kind = "GMM"
	KindGrammarInfo        Kind = "GRAMINFO"
	KindGrammar            Kind = "GRAMMAR"
	KindGraphOut           Kind = "GRAPHOUT"
	KindInput              Kind = "INPUT"
	KindInputParam         Kind = "INPUTPARAM"
	KindRecognitionOutput  Kind = "RECOGOUT"
	KindRecognitionProcess Kind = "RECOGPROCESS"
	KindRejected           Kind = "REJECTED"
	KindSystemInfo         Kind = "SYSINFO"

	// KindData is emitted once per record with the whole parsed tree.
	KindData Kind = "data"

	// KindUnrecognized is emitted for a top-level tag outside the vocabulary.
	KindUnrecognized Kind = "error"

	// KindAll is a subscription-only wildcard matching every notification.
	KindAll Kind = "*"
)

// Notification is a decoded event. The concrete types are Signal, RawData,
// EngineInfo, GMMResult, Passthrough, GrammarStatus, InputStatus,
// InputParam, RecognitionOutput, Rejected, SystemInfo and Unrecognized.
type Notification interface {
	Kind() Kind
	isNotification()
}

// Signal is a payload-free notification (STARTPROC, ENDPROC, STARTRECOG,
// ENDRECOG, RECOGFAIL).
type Signal struct {
	Tag Kind `json:"tag"`
}

// RawData carries the whole parsed tree of a record.
type RawData struct {
	Tree *Map `json:"tree"`
}

// EngineInfo is the reply to VERSION.
type EngineInfo struct {
	Conf    string `json:"conf"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

// GMMResult is the outcome of GMM-based input verification.
type GMMResult struct {
	CMScore float64 `json:"cmScore"`
	Result  string  `json:"result"`
}

// Passthrough carries a tag whose content is not modeled further
// (GRAMINFO, GRAPHOUT, RECOGPROCESS).
type Passthrough struct {
	Tag   Kind  `json:"tag"`
	Value Value `json:"value"`
}

// GrammarStatus reports the result of a grammar operation.
type GrammarStatus struct {
	Reason string `json:"reason"`
	Status string `json:"status"`
}

// InputState is the audio input state reported by INPUT.
type InputState string

const (
	InputListen   InputState = "LISTEN"
	InputStartRec InputState = "STARTREC"
	InputEndRec   InputState = "ENDREC"
)

// InputStatus reports a change in the audio input state.
type InputStatus struct {
	Status InputState `json:"status"`
	Time   float64    `json:"time"`
}

// InputParam describes the length of the last input segment.
type InputParam struct {
	Frames float64 `json:"frames"`
	Msec   float64 `json:"msec"`
}

// WordHypothesis is one recognized word of a hypothesis.
type WordHypothesis struct {
	ClassID string  `json:"classId"`
	CM      float64 `json:"cm"`
	Phone   string  `json:"phone"`
	Word    string  `json:"word"`
}

// Hypothesis is one candidate sentence.
type Hypothesis struct {
	Gram  string           `json:"gram"`
	Rank  float64          `json:"rank"`
	Score float64          `json:"score"`
	Words []WordHypothesis `json:"whypo"`
}

// Sentence joins the hypothesis words with single spaces, skipping empty
// words. Boundary words are kept; filtering them is up to the caller.
func (h Hypothesis) Sentence() string {
	words := make([]string, 0, len(h.Words))
	for _, w := range h.Words {
		if w.Word != "" {
			words = append(words, w.Word)
		}
	}
	return strings.Join(words, " ")
}

// RecognitionOutput carries the hypotheses of one recognition, in document
// order.
type RecognitionOutput struct {
	Hypotheses []Hypothesis `json:"hypotheses"`
}

// Best returns the hypothesis with the lowest rank. Hypotheses whose rank is
// NaN are only chosen when no other hypothesis exists.
func (r RecognitionOutput) Best() (Hypothesis, bool) {
	if len(r.Hypotheses) == 0 {
		return Hypothesis{}, false
	}
	best := r.Hypotheses[0]
	for _, h := range r.Hypotheses[1:] {
		if math.IsNaN(best.Rank) || h.Rank < best.Rank {
			best = h
		}
	}
	return best, true
}

// Rejected reports an input rejected before recognition.
type Rejected struct {
	Reason string `json:"reason"`
}

// ProcessState is the engine state reported by SYSINFO.
type ProcessState string

const (
	ProcessActive ProcessState = "ACTIVE"
	ProcessSleep  ProcessState = "SLEEP"
)

// SystemInfo is the reply to STATUS.
type SystemInfo struct {
	Process ProcessState `json:"process"`
}

// Unrecognized carries a top-level tag outside the known vocabulary.
type Unrecognized struct {
	Tag   string `json:"tag"`
	Value Value  `json:"value"`
}

func (s Signal) Kind() Kind { return s.Tag }
func (RawData) Kind() Kind { return KindData }
func (EngineInfo) Kind() Kind { return KindEngineInfo }
func (GMMResult) Kind() Kind { return KindGMM }
func (p Passthrough) Kind() Kind { return p.Tag }
func (GrammarStatus) Kind() Kind { return KindGrammar }
func (InputStatus) Kind() Kind { return KindInput }
func (InputParam) Kind() Kind { return KindInputParam }
func (RecognitionOutput) Kind() Kind { return KindRecognitionOutput }
func (Rejected) Kind() Kind { return KindRejected }
func (SystemInfo) Kind() Kind { return KindSystemInfo }
func (Unrecognized) Kind() Kind { return KindUnrecognized }
func (Signal) isNotification() {}
func (RawData) isNotification() {}
func (EngineInfo) isNotification() {}
func (GMMResult) isNotification() {}
func (Passthrough) isNotification() {}
func (GrammarStatus) isNotification() {}
func (InputStatus) isNotification() {}
func (InputParam) isNotification() {}
func (RecognitionOutput) isNotification() {}
func (Rejected) isNotification() {}
func (SystemInfo) isNotification() {}
func (Unrecognized) isNotification() {}
