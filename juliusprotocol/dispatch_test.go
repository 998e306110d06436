package juliusprotocol

import (
	"math"
	"reflect"
	"strconv"
	"testing"
)

const twoHypothesisRecord = `<RECOGOUT>` +
	`<SHYPO RANK="1" SCORE="-2170.443115" GRAM="0">` +
	`<WHYPO WORD="" CLASSID="<s>" PHONE="silB" CM="0.785"/>` +
	`<WHYPO WORD="hello" CLASSID="hello" PHONE="h e l o" CM="0.912"/>` +
	`<WHYPO WORD="" CLASSID="</s>" PHONE="silE" CM="1.000"/>` +
	`</SHYPO>` +
	`<SHYPO RANK="2" SCORE="-2184.117188" GRAM="0">` +
	`<WHYPO WORD="" CLASSID="<s>" PHONE="silB" CM="0.531"/>` +
	`<WHYPO WORD="yellow" CLASSID="yellow" PHONE="y e l o" CM="0.204"/>` +
	`<WHYPO WORD="" CLASSID="</s>" PHONE="silE" CM="1.000"/>` +
	`</SHYPO>` +
	`</RECOGOUT>`

func mustDecode(t *testing.T, record string) []Notification {
	t.Helper()
	notes, err := Decode(record)
	if err != nil {
		t.Fatalf("Decode(%q) failed: %v", record, err)
	}
	return notes
}

func TestDispatchRecognitionOutput(t *testing.T) {
	notes := mustDecode(t, twoHypothesisRecord)
	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notes))
	}
	if _, ok := notes[0].(RawData); !ok {
		t.Fatalf("first notification is %T, want RawData", notes[0])
	}

	out, ok := notes[1].(RecognitionOutput)
	if !ok {
		t.Fatalf("second notification is %T, want RecognitionOutput", notes[1])
	}
	if len(out.Hypotheses) != 2 {
		t.Fatalf("got %d hypotheses, want 2", len(out.Hypotheses))
	}

	first, second := out.Hypotheses[0], out.Hypotheses[1]
	if first.Rank != 1 || second.Rank != 2 {
		t.Errorf("ranks = %v, %v, want 1, 2", first.Rank, second.Rank)
	}
	if !(first.Score > second.Score) {
		t.Errorf("scores %v, %v should be descending", first.Score, second.Score)
	}
	if first.Gram != "0" {
		t.Errorf("Gram = %q, want %q", first.Gram, "0")
	}

	for i, h := range out.Hypotheses {
		if len(h.Words) != 3 {
			t.Fatalf("hypothesis %d has %d words, want 3", i, len(h.Words))
		}
		if h.Words[0].Phone != "silB" || h.Words[0].ClassID != "<s>" {
			t.Errorf("hypothesis %d boundary word = %+v", i, h.Words[0])
		}
		if h.Words[2].Phone != "silE" || h.Words[2].ClassID != "</s>" {
			t.Errorf("hypothesis %d boundary word = %+v", i, h.Words[2])
		}
	}

	want := WordHypothesis{ClassID: "hello", CM: 0.912, Phone: "h e l o", Word: "hello"}
	if got := first.Words[1]; got != want {
		t.Errorf("word = %+v, want %+v", got, want)
	}
}

func TestDispatchSingleRepeatableElements(t *testing.T) {
	notes := mustDecode(t, `<RECOGOUT><SHYPO RANK="1" SCORE="-10"><WHYPO WORD="hi" CM="0.5"/></SHYPO></RECOGOUT>`)
	out := notes[1].(RecognitionOutput)

	if len(out.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(out.Hypotheses))
	}
	h := out.Hypotheses[0]
	if len(h.Words) != 1 || h.Words[0].Word != "hi" || h.Words[0].CM != 0.5 {
		t.Errorf("words = %+v", h.Words)
	}
}

func TestDispatchRecognitionOutputWithoutHypotheses(t *testing.T) {
	for _, record := range []string{"<RECOGOUT/>", "<RECOGOUT></RECOGOUT>", `<RECOGOUT><SHYPO RANK="1"/></RECOGOUT>`} {
		notes := mustDecode(t, record)
		out, ok := notes[1].(RecognitionOutput)
		if !ok {
			t.Fatalf("%q: got %T, want RecognitionOutput", record, notes[1])
		}
		for _, h := range out.Hypotheses {
			if h.Words == nil || len(h.Words) != 0 {
				t.Errorf("%q: words = %#v, want empty", record, h.Words)
			}
		}
	}
}

func TestDispatchUnknownTag(t *testing.T) {
	notes := mustDecode(t, "<FOO>bar</FOO>")
	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notes))
	}

	raw, ok := notes[0].(RawData)
	if !ok {
		t.Fatalf("first notification is %T, want RawData", notes[0])
	}
	if v, _ := raw.Tree.Get("FOO"); v != "bar" {
		t.Errorf("raw FOO = %#v, want \"bar\"", v)
	}

	u, ok := notes[1].(Unrecognized)
	if !ok {
		t.Fatalf("second notification is %T, want Unrecognized", notes[1])
	}
	if u.Tag != "FOO" || u.Value != "bar" {
		t.Errorf("got %+v, want {Tag:FOO Value:bar}", u)
	}
	if u.Kind() != KindUnrecognized {
		t.Errorf("Kind() = %q, want %q", u.Kind(), KindUnrecognized)
	}
}

func TestDispatchSimpleTags(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		expected Notification
	}{
		{"startproc", "<STARTPROC/>", Signal{Tag: KindStartProcess}},
		{"endproc", "<ENDPROC/>", Signal{Tag: KindEndProcess}},
		{"startrecog", "<STARTRECOG/>", Signal{Tag: KindStartRecognition}},
		{"endrecog", "<ENDRECOG/>", Signal{Tag: KindEndRecognition}},
		{"recogfail", "<RECOGFAIL/>", Signal{Tag: KindRecognitionFailed}},
		{
			"engineinfo",
			`<ENGINEINFO TYPE="Julius" VERSION="4.6" CONF="main.jconf"/>`,
			EngineInfo{Conf: "main.jconf", Type: "Julius", Version: "4.6"},
		},
		{"gmm", `<GMM RESULT="noise" CMSCORE="0.25"/>`, GMMResult{CMScore: 0.25, Result: "noise"}},
		{"grammar", `<GRAMMAR STATUS="RECEIVED" REASON="ok"/>`, GrammarStatus{Reason: "ok", Status: "RECEIVED"}},
		{"input listen", `<INPUT STATUS="LISTEN" TIME="1700000000"/>`, InputStatus{Status: InputListen, Time: 1700000000}},
		{"input startrec", `<INPUT STATUS="STARTREC" TIME="12"/>`, InputStatus{Status: InputStartRec, Time: 12}},
		{"inputparam", `<INPUTPARAM FRAMES="172" MSEC="1720"/>`, InputParam{Frames: 172, Msec: 1720}},
		{"rejected", `<REJECTED REASON="by GMM"/>`, Rejected{Reason: "by GMM"}},
		{"sysinfo active", `<SYSINFO PROCESS="ACTIVE"/>`, SystemInfo{Process: ProcessActive}},
		{"sysinfo sleep", `<SYSINFO PROCESS="SLEEP"/>`, SystemInfo{Process: ProcessSleep}},
		{"engineinfo missing attrs", `<ENGINEINFO TYPE="Julius"/>`, EngineInfo{Type: "Julius"}},
		{"rejected bare", `<REJECTED/>`, Rejected{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := mustDecode(t, tt.record)
			if len(notes) != 2 {
				t.Fatalf("got %d notifications, want 2", len(notes))
			}
			if !reflect.DeepEqual(notes[1], tt.expected) {
				t.Errorf("got %#v, want %#v", notes[1], tt.expected)
			}
			if notes[1].Kind() != tt.expected.Kind() {
				t.Errorf("Kind() = %q, want %q", notes[1].Kind(), tt.expected.Kind())
			}
		})
	}
}

func TestDispatchPassthrough(t *testing.T) {
	for _, kind := range []Kind{KindGrammarInfo, KindGraphOut, KindRecognitionProcess} {
		record := "<" + string(kind) + ">payload</" + string(kind) + ">"
		notes := mustDecode(t, record)
		p, ok := notes[1].(Passthrough)
		if !ok {
			t.Fatalf("%s: got %T, want Passthrough", kind, notes[1])
		}
		if p.Tag != kind || p.Value != "payload" || p.Kind() != kind {
			t.Errorf("%s: got %+v", kind, p)
		}
	}
}

func TestDispatchMalformedNumbers(t *testing.T) {
	notes := mustDecode(t, `<INPUTPARAM FRAMES="many" MSEC="1720"/><GMM RESULT="noise"/>`)

	param := notes[1].(InputParam)
	if !math.IsNaN(param.Frames) {
		t.Errorf("Frames = %v, want NaN", param.Frames)
	}
	if param.Msec != 1720 {
		t.Errorf("Msec = %v, want 1720", param.Msec)
	}

	gmm := notes[2].(GMMResult)
	if !math.IsNaN(gmm.CMScore) {
		t.Errorf("CMScore = %v, want NaN", gmm.CMScore)
	}
	if gmm.Result != "noise" {
		t.Errorf("Result = %q, want %q", gmm.Result, "noise")
	}
}

func TestDispatchRecordOrder(t *testing.T) {
	notes := mustDecode(t, `<INPUT STATUS="ENDREC" TIME="5"/><INPUTPARAM FRAMES="1" MSEC="10"/><FOO/><STARTRECOG/>`)

	want := []Kind{KindData, KindInput, KindInputParam, KindUnrecognized, KindStartRecognition}
	if len(notes) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(notes), len(want))
	}
	for i, n := range notes {
		if n.Kind() != want[i] {
			t.Errorf("notification %d kind = %q, want %q", i, n.Kind(), want[i])
		}
	}
}

func TestDispatchRepeatedTopLevelKey(t *testing.T) {
	notes := mustDecode(t, `<REJECTED REASON="first"/><REJECTED REASON="second"/>`)
	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notes))
	}
	if r := notes[1].(Rejected); r.Reason != "first" {
		t.Errorf("Reason = %q, want %q", r.Reason, "first")
	}
}

func TestDispatchEmptyRecord(t *testing.T) {
	notes := mustDecode(t, "")
	if len(notes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notes))
	}
	if raw, ok := notes[0].(RawData); !ok || raw.Tree.Len() != 0 {
		t.Errorf("got %#v, want empty RawData", notes[0])
	}
}

func TestDecodeIgnoresCommentsAndCDATA(t *testing.T) {
	notes := mustDecode(t, "<!-- engine's note --><STARTRECOG/>")
	if len(notes) != 2 || notes[1] != (Signal{Tag: KindStartRecognition}) {
		t.Errorf("got %#v, want RawData then STARTRECOG", notes)
	}

	notes = mustDecode(t, `<GRAMINFO><![CDATA[ it's "x" ]]></GRAMINFO>`)
	if len(notes) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notes))
	}
	if p, ok := notes[1].(Passthrough); !ok || p.Value != `it's "x"` {
		t.Errorf("got %#v, want GRAMINFO passthrough", notes[1])
	}
}

func TestDecodeMalformedMarkup(t *testing.T) {
	notes, err := Decode("<RECOGOUT><SHYPO>")
	if err == nil {
		t.Fatal("expected an error")
	}
	if notes != nil {
		t.Errorf("got %d notifications, want none", len(notes))
	}
}

func TestIsKnownTag(t *testing.T) {
	known := []string{
		"STARTPROC", "ENDPROC", "STARTRECOG", "ENDRECOG", "RECOGFAIL",
		"ENGINEINFO", "GMM", "GRAMINFO", "GRAMMAR", "GRAPHOUT", "INPUT",
		"INPUTPARAM", "RECOGOUT", "RECOGPROCESS", "REJECTED", "SYSINFO",
	}
	for _, tag := range known {
		if !IsKnownTag(tag) {
			t.Errorf("IsKnownTag(%q) = false", tag)
		}
	}
	for _, tag := range []string{"FOO", "recogout", "", "data", "error"} {
		if IsKnownTag(tag) {
			t.Errorf("IsKnownTag(%q) = true", tag)
		}
	}
}

func TestParseNumberRoundTrip(t *testing.T) {
	values := []float64{0, 1, -2170.443115, 0.785, 1e-7, 1700000000, -0.5}
	for _, v := range values {
		for _, format := range []byte{'f', 'g', 'e'} {
			s := strconv.FormatFloat(v, format, -1, 64)
			got := parseNumber(s)
			if math.Abs(got-v) > 1e-9*math.Max(1, math.Abs(v)) {
				t.Errorf("parseNumber(%q) = %v, want %v", s, got, v)
			}
			if again := parseNumber(strconv.FormatFloat(got, 'g', -1, 64)); again != got {
				t.Errorf("parseNumber is not stable for %q: %v then %v", s, got, again)
			}
		}
	}

	for s, want := range map[string]float64{"1e400": math.Inf(1), "-1e400": math.Inf(-1)} {
		if got := parseNumber(s); got != want {
			t.Errorf("parseNumber(%q) = %v, want %v", s, got, want)
		}
	}

	for _, bad := range []string{"", "abc", "1.2.3", "--1"} {
		if !math.IsNaN(parseNumber(bad)) {
			t.Errorf("parseNumber(%q) should be NaN", bad)
		}
	}
}

func TestSequence(t *testing.T) {
	single := NewMap()
	if got := sequence(single); len(got) != 1 || got[0] != single {
		t.Errorf("sequence(single) = %#v", got)
	}
	list := []Value{"a", "b"}
	if got := sequence(list); !reflect.DeepEqual(got, list) {
		t.Errorf("sequence(list) = %#v", got)
	}
	if got := sequence(nil); len(got) != 0 {
		t.Errorf("sequence(nil) = %#v", got)
	}
}

func TestBestHypothesis(t *testing.T) {
	out := mustDecode(t, twoHypothesisRecord)[1].(RecognitionOutput)
	out.Hypotheses[0], out.Hypotheses[1] = out.Hypotheses[1], out.Hypotheses[0]

	best, ok := out.Best()
	if !ok {
		t.Fatal("Best() reported no hypothesis")
	}
	if best.Rank != 1 {
		t.Errorf("best rank = %v, want 1", best.Rank)
	}
	if best.Sentence() != "hello" {
		t.Errorf("Sentence() = %q, want %q", best.Sentence(), "hello")
	}

	if _, ok := (RecognitionOutput{}).Best(); ok {
		t.Error("Best() on empty output should report false")
	}

	nan := RecognitionOutput{Hypotheses: []Hypothesis{{Rank: math.NaN(), Gram: "a"}, {Rank: 3, Gram: "b"}}}
	if best, _ := nan.Best(); best.Gram != "b" {
		t.Errorf("NaN rank chosen over a numeric one: %+v", best)
	}
}
