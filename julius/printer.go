// =============================================================================
// printer.go - Notification Rendering
// =============================================================================
//
// The printer turns notifications into one line of text each. Recognition
// results are printed the way most Julius front ends show them: the score
// of the best hypothesis, a tab, then every word with its confidence.
//
//	-2170.443115	hello(0.912)world(0.870)
//
// The silB/silE boundary words that Julius places around every sentence
// are left out of that line. The protocol library keeps them; filtering is
// a presentation choice made here.
//
// =============================================================================

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/julius-go/julius/juliusprotocol"
)

// Phones Julius assigns to the sentence boundary words.
const (
	phoneSilenceBegin = "silB"
	phoneSilenceEnd   = "silE"
)

// GO CONCEPT: sync/atomic
// -----------------------
// atomic.Bool is a boolean that can be read and written from several
// goroutines without a mutex. The REPL goroutine toggles raw mode while
// the client's reader goroutine reads it for every record.
//
// Compare with Python: the GIL makes a plain attribute assignment atomic,
// so Python code rarely needs an explicit atomic type.

// replyKinds are the notification kinds the REPL requests and prints
// itself.
var replyKinds = []juliusprotocol.Kind{
	juliusprotocol.KindEngineInfo,
	juliusprotocol.KindSystemInfo,
	juliusprotocol.KindGrammarInfo,
}

// subscriber is satisfied by juliusprotocol.Client and juliusprotocol.Emitter.
type subscriber interface {
	Subscribe(kind juliusprotocol.Kind, h juliusprotocol.Handler) juliusprotocol.Subscription
}

// printer writes notifications to an output stream.
type printer struct {
	mu  sync.Mutex
	out io.Writer
	raw atomic.Bool

	// awaiting counts the REPL requests in flight per reply kind.
	waitMu   sync.Mutex
	awaiting map[juliusprotocol.Kind]int
}

// newPrinter creates a printer writing to out.
func newPrinter(out io.Writer, raw bool) *printer {
	p := &printer{out: out, awaiting: make(map[juliusprotocol.Kind]int)}
	p.raw.Store(raw)
	return p
}

// subscribe registers the printer for every notification. Reply kinds get
// their own subscriptions so the printer sees a reply before a request
// subscribed later does. It must be called before any request is made.
func (p *printer) subscribe(s subscriber) []juliusprotocol.Subscription {
	subs := []juliusprotocol.Subscription{s.Subscribe(juliusprotocol.KindAll, p.handle)}
	for _, kind := range replyKinds {
		subs = append(subs, s.Subscribe(kind, p.handleReply))
	}
	return subs
}

// expect marks a REPL request for kind as in flight. Records of that kind
// are left to the REPL until release is called.
func (p *printer) expect(kind juliusprotocol.Kind) (release func()) {
	p.waitMu.Lock()
	p.awaiting[kind]++
	p.waitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.waitMu.Lock()
			defer p.waitMu.Unlock()
			if p.awaiting[kind]--; p.awaiting[kind] <= 0 {
				delete(p.awaiting, kind)
			}
		})
	}
}

func (p *printer) isAwaited(kind juliusprotocol.Kind) bool {
	p.waitMu.Lock()
	defer p.waitMu.Unlock()
	return p.awaiting[kind] > 0
}

// toggleRaw flips raw mode and returns the new setting. Only the REPL
// goroutine calls it.
func (p *printer) toggleRaw() bool {
	raw := !p.raw.Load()
	p.raw.Store(raw)
	return raw
}

// isReply reports whether n is of a kind the REPL can request.
func isReply(n juliusprotocol.Notification) bool {
	for _, kind := range replyKinds {
		if n.Kind() == kind {
			return true
		}
	}
	return false
}

// handle is subscribed to every notification kind. Reply kinds are left to
// handleReply.
func (p *printer) handle(n juliusprotocol.Notification) {
	if isReply(n) {
		return
	}
	if _, ok := n.(juliusprotocol.RawData); ok && !p.raw.Load() {
		return
	}
	p.println(formatNotification(n))
}

// handleReply prints a reply kind unless a REPL request for it is in
// flight, in which case the REPL prints it once the request returns.
func (p *printer) handleReply(n juliusprotocol.Notification) {
	if p.isAwaited(n.Kind()) {
		return
	}
	p.println(formatNotification(n))
}

// println writes one line under the printer lock so lines from the reader
// goroutine and the REPL never interleave.
func (p *printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

// formatNotification renders a notification as a single line.
func formatNotification(n juliusprotocol.Notification) string {
	switch v := n.(type) {
	case juliusprotocol.RecognitionOutput:
		return formatRecognition(v)
	case juliusprotocol.Signal:
		return "[" + string(v.Tag) + "]"
	case juliusprotocol.EngineInfo:
		return fmt.Sprintf("engine: %s %s (%s)", v.Type, v.Version, v.Conf)
	case juliusprotocol.SystemInfo:
		return fmt.Sprintf("engine process: %s", v.Process)
	case juliusprotocol.InputStatus:
		return fmt.Sprintf("input: %s", v.Status)
	case juliusprotocol.InputParam:
		return fmt.Sprintf("input: %s frames, %s ms", formatNumber(v.Frames), formatNumber(v.Msec))
	case juliusprotocol.GMMResult:
		return fmt.Sprintf("gmm: %s (%s)", v.Result, formatNumber(v.CMScore))
	case juliusprotocol.GrammarStatus:
		if v.Reason != "" {
			return fmt.Sprintf("grammar: %s (%s)", v.Status, v.Reason)
		}
		return fmt.Sprintf("grammar: %s", v.Status)
	case juliusprotocol.Rejected:
		return fmt.Sprintf("rejected: %s", v.Reason)
	case juliusprotocol.Passthrough:
		return fmt.Sprintf("%s: %s", v.Tag, formatValue(v.Value))
	case juliusprotocol.RawData:
		return "data: " + formatValue(v.Tree)
	case juliusprotocol.Unrecognized:
		return fmt.Sprintf("unrecognized tag %s: %s", v.Tag, formatValue(v.Value))
	default:
		return string(n.Kind())
	}
}

// formatRecognition renders the best hypothesis without boundary words.
func formatRecognition(out juliusprotocol.RecognitionOutput) string {
	best, ok := out.Best()
	if !ok {
		return "\t"
	}

	var words strings.Builder
	for _, w := range best.Words {
		if w.Phone == phoneSilenceBegin || w.Phone == phoneSilenceEnd {
			continue
		}
		words.WriteString(w.Word)
		words.WriteString("(")
		words.WriteString(formatNumber(w.CM))
		words.WriteString(")")
	}
	return formatNumber(best.Score) + "\t" + words.String()
}

// formatNumber prints numbers without exponent or trailing zeros.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatValue renders a raw tree value as compact JSON, falling back to Go
// syntax for values JSON cannot hold.
func formatValue(v juliusprotocol.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
