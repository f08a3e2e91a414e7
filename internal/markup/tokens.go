package markup

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokRune tokenKind = iota
	tokSGR
	tokErase
	tokBackspace
	tokBell
	tokNewline
)

// token is one lexical unit of the input. start and end index the input
// string, so sequences are sliced out only when they are written.
type token struct {
	kind  tokenKind
	r     rune
	start int
	end   int
}

const (
	esc       = '\x1b'
	backspace = '\x08'
	bell      = '\x07'
)

// lineEnd returns the index just past the line break that ends the line
// starting at from, or len(s) for a final unterminated line.
func lineEnd(s string, from int) int {
	i := strings.IndexAny(s[from:], "\r\n")
	if i < 0 {
		return len(s)
	}
	end := from + i + 1
	if s[end-1] == '\r' && end < len(s) && s[end] == '\n' {
		end++
	}
	return end
}

// tokenize appends the tokens of s[from:to] to toks. Adjacent SGR sequences
// are merged into one token.
func tokenize(toks []token, s string, from, to int) []token {
	for i := from; i < to; {
		switch c := s[i]; c {
		case esc:
			if n, kind, ok := parseCSI(s[i:to]); ok {
				if kind == tokSGR && len(toks) > 0 && toks[len(toks)-1].kind == tokSGR && toks[len(toks)-1].end == i {
					toks[len(toks)-1].end = i + n
				} else {
					toks = append(toks, token{kind: kind, start: i, end: i + n})
				}
				i += n
				continue
			}
			toks = append(toks, token{kind: tokRune, r: esc, start: i, end: i + 1})
			i++
		case backspace:
			toks = append(toks, token{kind: tokBackspace, start: i, end: i + 1})
			i++
		case bell:
			toks = append(toks, token{kind: tokBell, start: i, end: i + 1})
			i++
		case '\r':
			if i+1 < to && s[i+1] == '\n' {
				toks = append(toks, token{kind: tokNewline, start: i, end: i + 2})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokNewline, start: i, end: i + 1})
			i++
		case '\n':
			toks = append(toks, token{kind: tokNewline, start: i, end: i + 1})
			i++
		default:
			r, size := utf8.DecodeRuneInString(s[i:to])
			toks = append(toks, token{kind: tokRune, r: r, start: i, end: i + size})
			i += size
		}
	}
	return toks
}

// parseCSI recognises ESC [ params m (SGR) and ESC [ K / ESC [ 0 K (erase to
// end of line). It reports the number of bytes consumed.
func parseCSI(s string) (int, tokenKind, bool) {
	if len(s) < 3 || s[0] != esc || s[1] != '[' {
		return 0, 0, false
	}
	end := 2
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == ';') {
		end++
	}
	if end >= len(s) {
		return 0, 0, false
	}
	body := s[2:end]
	switch s[end] {
	case 'm':
		return end + 1, tokSGR, true
	case 'K':
		if body == "" || body == "0" {
			return end + 1, tokErase, true
		}
	}
	return 0, 0, false
}

// sgrParams returns the parameters of one or more consecutive SGR sequences.
func sgrParams(seq string) []int {
	var params []int
	for _, part := range strings.Split(seq, "\x1b[")[1:] {
		params = append(params, parseParams(strings.TrimSuffix(part, "m"))...)
	}
	return params
}

func parseParams(body string) []int {
	if body == "" {
		return []int{0}
	}
	fields := strings.Split(body, ";")
	params := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			// empty field
			n = 0
		}
		params = append(params, n)
	}
	return params
}

// applyControls runs the terminal's destructive controls in one pass,
// filtering toks in place. Only runes on the current line are removable.
func applyControls(toks []token) []token {
	out := toks[:0]
	lineStart := 0
	for _, t := range toks {
		switch t.kind {
		case tokBell:
		case tokBackspace:
			for j := len(out) - 1; j >= lineStart; j-- {
				if out[j].kind == tokRune {
					out = append(out[:j], out[j+1:]...)
					break
				}
			}
		case tokErase:
			kept := out[:lineStart]
			for _, o := range out[lineStart:] {
				if o.kind != tokRune {
					kept = append(kept, o)
				}
			}
			out = kept
		case tokNewline:
			out = append(out, t)
			lineStart = len(out)
		default:
			out = append(out, t)
		}
	}
	return out
}
