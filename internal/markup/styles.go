package markup

import (
	"sort"
	"strings"
)

type category int

const (
	catColor category = iota
	catBold
	catUnderline
	numCategories
)

const spanClose = "</span>"

// colorNames maps the SGR foreground codes the translator renders.
var colorNames = map[int]string{
	36: "cyan",
	34: "blue",
	31: "red",
	35: "magenta",
	32: "green",
}

var (
	boldOpen      = `<span style="font-weight:bold">`
	underlineOpen = `<span style="text-decoration: underline">`
)

func colorOpen(name string) string {
	return `<span style="color: ` + name + `">`
}

type styleOpen struct {
	cat category
	tag string
}

// effects is what one (possibly merged) SGR token does.
type effects struct {
	closes [numCategories]bool
	opens  []styleOpen
}

func (e effects) empty() bool {
	if len(e.opens) > 0 {
		return false
	}
	for _, c := range e.closes {
		if c {
			return false
		}
	}
	return true
}

// classify interprets SGR parameters. A leading 1 before a colour or
// underline code is the intensity prefix of that pair, so bold only opens when
// every parameter is 1.
func classify(params []int) effects {
	var e effects
	onlyBold := len(params) > 0
	colour := ""
	underline := false
	for _, p := range params {
		if p != 1 {
			onlyBold = false
		}
		switch p {
		case 0:
			e.closes[catColor] = true
			e.closes[catBold] = true
			e.closes[catUnderline] = true
		case 39:
			e.closes[catColor] = true
		case 22:
			e.closes[catBold] = true
		case 24:
			e.closes[catUnderline] = true
		case 4:
			underline = true
		default:
			if name, ok := colorNames[p]; ok {
				colour = name
			}
		}
	}
	if onlyBold {
		e.opens = append(e.opens, styleOpen{cat: catBold, tag: boldOpen})
	}
	if colour != "" {
		e.opens = append(e.opens, styleOpen{cat: catColor, tag: colorOpen(colour)})
	}
	if underline {
		e.opens = append(e.opens, styleOpen{cat: catUnderline, tag: underlineOpen})
	}
	return e
}

// slot is the output position of one SGR token. Its text is decided once
// pairing is known: matched opens and closes become tags, a token with no
// matched effect stays literal.
type slot struct {
	raw     string
	opens   []styleOpen
	matched []bool
	closing []openRef
}

func (s *slot) used() bool {
	if len(s.closing) > 0 {
		return true
	}
	for _, m := range s.matched {
		if m {
			return true
		}
	}
	return false
}

type openRef struct {
	slot *slot
	idx  int
}

func (r openRef) tag() string {
	return r.slot.opens[r.idx].tag
}

// write emits the slot given the spans currently open in the output, and
// returns the updated list. Closing a span that is not innermost closes the
// spans above it first and reopens them afterwards, so overlapping styles
// keep applying to the text that follows.
func (s *slot) write(b *strings.Builder, open []openRef) []openRef {
	if !s.used() {
		b.WriteString(s.raw)
		return open
	}

	targets := make([]int, 0, len(s.closing))
	for _, ref := range s.closing {
		for i := len(open) - 1; i >= 0; i-- {
			if open[i] == ref {
				targets = append(targets, i)
				break
			}
		}
	}
	// Innermost first, so removing one leaves the lower indices valid.
	sort.Sort(sort.Reverse(sort.IntSlice(targets)))
	for _, i := range targets {
		above := open[i+1:]
		b.WriteString(strings.Repeat(spanClose, len(above)+1))
		for _, ref := range above {
			b.WriteString(ref.tag())
		}
		open = append(open[:i], above...)
	}

	for i, o := range s.opens {
		if s.matched[i] {
			b.WriteString(o.tag)
			open = append(open, openRef{slot: s, idx: i})
		}
	}
	return open
}

// styleStacks pairs starts with ends, one stack per category.
type styleStacks [numCategories][]openRef

func (st *styleStacks) apply(raw string, e effects) *slot {
	s := &slot{raw: raw, opens: e.opens, matched: make([]bool, len(e.opens))}
	for cat := category(0); cat < numCategories; cat++ {
		if !e.closes[cat] {
			continue
		}
		stack := st[cat]
		if len(stack) == 0 {
			continue
		}
		ref := stack[len(stack)-1]
		st[cat] = stack[:len(stack)-1]
		ref.slot.matched[ref.idx] = true
		s.closing = append(s.closing, ref)
	}
	for i, o := range e.opens {
		st[o.cat] = append(st[o.cat], openRef{slot: s, idx: i})
	}
	return s
}
