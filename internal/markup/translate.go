package markup

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultTabStop = 4

// Options configure a Translator.
type Options struct {
	TabStop  int  // &nbsp; per leading tab; zero uses 4
	LinkURLs bool // wrap bare URLs in anchors instead of passing them through
}

// Translator renders terminal text as HTML. It holds no per-call state and is
// safe for concurrent use.
type Translator struct {
	tab      string
	linkURLs bool
}

// New builds a Translator from opts.
func New(opts Options) *Translator {
	stop := opts.TabStop
	if stop <= 0 {
		stop = defaultTabStop
	}
	return &Translator{
		tab:      strings.Repeat("&nbsp;", stop),
		linkURLs: opts.LinkURLs,
	}
}

var defaultTranslator = New(Options{})

// Render translates raw with the default options.
func Render(raw string) string {
	return defaultTranslator.Render(raw)
}

// Render translates raw terminal text into HTML markup. Input is tokenised a
// line at a time, so working memory beyond the output stays proportional to
// the longest line.
func (t *Translator) Render(raw string) string {
	if raw == "" {
		return ""
	}
	r := renderer{
		Translator: t,
		raw:        raw,
		out:        make([]byte, 0, len(raw)+len(raw)/4),
	}
	var toks []token
	for start := 0; start < len(raw); {
		end := lineEnd(raw, start)
		toks = applyControls(tokenize(toks[:0], raw, start, end))
		r.line(toks)
		start = end
	}
	return r.finish()
}

// placedSlot is an SGR slot and the output offset it belongs at.
type placedSlot struct {
	at   int
	slot *slot
}

type renderer struct {
	*Translator
	raw    string
	out    []byte
	slots  []placedSlot
	stacks styleStacks
}

func (r *renderer) line(toks []token) {
	lineStart, afterGap := true, true
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.kind {
		case tokNewline:
			r.out = append(r.out, "<br>"...)
		case tokSGR:
			seq := r.raw[tok.start:tok.end]
			e := classify(sgrParams(seq))
			if e.empty() {
				r.out = append(r.out, seq...)
				continue
			}
			r.slots = append(r.slots, placedSlot{at: len(r.out), slot: r.stacks.apply(seq, e)})
		case tokRune:
			c := tok.r
			if lineStart && (c == ' ' || c == '\t') {
				if c == '\t' {
					r.out = append(r.out, r.tab...)
				} else {
					r.out = append(r.out, "&nbsp;"...)
				}
				continue
			}
			lineStart = false
			if afterGap {
				if end := urlEnd(toks, i); end > i {
					r.out = r.appendURL(r.out, toks[i:end])
					i = end - 1
					afterGap = false
					continue
				}
			}
			afterGap = unicode.IsSpace(c)
			r.out = appendEscaped(r.out, c)
		}
	}
}

// finish splices the resolved SGR slots into the text.
func (r *renderer) finish() string {
	if len(r.slots) == 0 {
		return string(r.out)
	}
	var b strings.Builder
	b.Grow(len(r.out) + len(r.slots)*len(underlineOpen))
	var open []openRef
	prev := 0
	for _, p := range r.slots {
		b.Write(r.out[prev:p.at])
		prev = p.at
		open = p.slot.write(&b, open)
	}
	b.Write(r.out[prev:])
	return b.String()
}

func appendEscaped(b []byte, c rune) []byte {
	switch c {
	case '<':
		return append(b, "&lt;"...)
	case '>':
		return append(b, "&gt;"...)
	case '&':
		return append(b, "&amp;"...)
	default:
		return utf8.AppendRune(b, c)
	}
}

func (t *Translator) appendURL(b []byte, toks []token) []byte {
	if !t.linkURLs {
		for _, tok := range toks {
			b = appendEscaped(b, tok.r)
		}
		return b
	}
	var url strings.Builder
	for _, tok := range toks {
		url.WriteRune(tok.r)
	}
	escaped := html.EscapeString(url.String())
	b = append(b, `<a href="`...)
	b = append(b, escaped...)
	b = append(b, `">`...)
	b = append(b, escaped...)
	return append(b, `</a>`...)
}

var urlSchemes = []string{"http://", "https://", "ftp://"}

// urlEnd reports the end index of a bare URL starting at toks[i], or i when
// there is none. A URL runs until whitespace or a non-text token.
func urlEnd(toks []token, i int) int {
	for _, scheme := range urlSchemes {
		if !hasPrefixFold(toks[i:], scheme) {
			continue
		}
		end := i + len(scheme)
		for end < len(toks) && toks[end].kind == tokRune && !unicode.IsSpace(toks[end].r) {
			end++
		}
		if end == i+len(scheme) {
			return i
		}
		return end
	}
	return i
}

func hasPrefixFold(toks []token, prefix string) bool {
	if len(toks) < len(prefix) {
		return false
	}
	for j := 0; j < len(prefix); j++ {
		if toks[j].kind != tokRune || unicode.ToLower(toks[j].r) != rune(prefix[j]) {
			return false
		}
	}
	return true
}
