package markup

import (
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain text", input: "hello world", expected: "hello world"},
		{name: "line endings", input: "a\nb\r\nc\rd", expected: "a<br>b<br>c<br>d"},
		{name: "html characters", input: "if a < b && c > d", expected: "if a &lt; b &amp;&amp; c &gt; d"},
		{name: "quotes untouched", input: `say "hi"`, expected: `say "hi"`},
		{name: "leading spaces", input: "  x  y", expected: "&nbsp;&nbsp;x  y"},
		{name: "leading tab", input: "\tx", expected: "&nbsp;&nbsp;&nbsp;&nbsp;x"},
		{name: "indent on second line", input: "a\n  b", expected: "a<br>&nbsp;&nbsp;b"},
		{
			name:     "red span",
			input:    "\x1b[1;31merror\x1b[1;39m",
			expected: `<span style="color: red">error</span>`,
		},
		{
			name:     "legacy two-sequence colour",
			input:    "\x1b[1m\x1b[36mok\x1b[1m\x1b[39m",
			expected: `<span style="color: cyan">ok</span>`,
		},
		{
			name:     "colour closed by reset",
			input:    "\x1b[32mpass\x1b[0m done",
			expected: `<span style="color: green">pass</span> done`,
		},
		{
			name:     "bold",
			input:    "\x1b[1m\x1b[1mstrong\x1b[1m\x1b[22m",
			expected: `<span style="font-weight:bold">strong</span>`,
		},
		{
			name:     "underline",
			input:    "\x1b[1m\x1b[4mlink\x1b[1m\x1b[24m",
			expected: `<span style="text-decoration: underline">link</span>`,
		},
		{
			name:     "unmatched start stays literal",
			input:    "\x1b[31mdangling",
			expected: "\x1b[31mdangling",
		},
		{
			name:     "unmatched end stays literal",
			input:    "tail\x1b[39m",
			expected: "tail\x1b[39m",
		},
		{
			name:     "unsupported colour stays literal",
			input:    "\x1b[33mwarn\x1b[39m",
			expected: "\x1b[33mwarn\x1b[39m",
		},
		{
			name:     "escaped text inside span",
			input:    "\x1b[31m<b>\x1b[39m",
			expected: `<span style="color: red">&lt;b&gt;</span>`,
		},
		{
			name:     "span across lines",
			input:    "\x1b[34mone\ntwo\x1b[39m",
			expected: `<span style="color: blue">one<br>two</span>`,
		},
		{
			name:     "nested colours",
			input:    "\x1b[31ma\x1b[32mb\x1b[39mc\x1b[39m",
			expected: `<span style="color: red">a<span style="color: green">b</span>c</span>`,
		},
		{
			name:     "overlapping styles reopen",
			input:    "\x1b[1mB \x1b[31mR\x1b[1m\x1b[22m r\x1b[39m",
			expected: `<span style="font-weight:bold">B <span style="color: red">R</span></span><span style="color: red"> r</span>`,
		},
		{
			name:     "reset closes innermost first",
			input:    "\x1b[1m\x1b[1mb\x1b[31mr\x1b[0m",
			expected: `<span style="font-weight:bold">b<span style="color: red">r</span></span>`,
		},
		{name: "bells removed", input: "\x07a\x07\x07b\x07", expected: "ab"},
		{name: "backspace", input: "ab\x08", expected: "a"},
		{name: "double backspace", input: "abc\x08\x08", expected: "a"},
		{name: "backspace on empty line", input: "\x08x", expected: "x"},
		{name: "backspace does not cross line", input: "a\n\x08b", expected: "a<br>b"},
		{name: "backspace over escaped char", input: "a&\x08", expected: "a"},
		{name: "erase line", input: "progress 10%\x1b[Kdone", expected: "done"},
		{name: "erase keeps previous lines", input: "keep\nlose\x1b[K", expected: "keep<br>"},
		{name: "unknown escape literal", input: "\x1b[2Jx", expected: "\x1b[2Jx"},
		{name: "url passthrough", input: "see http://example.com/a?b=1&c=2 now", expected: "see http://example.com/a?b=1&amp;c=2 now"},
		{name: "url at start", input: "FTP://host/file", expected: "FTP://host/file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.input)
			if got != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRender_LinkURLs(t *testing.T) {
	tr := New(Options{LinkURLs: true})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bare url",
			input:    "go http://example.com/x",
			expected: `go <a href="http://example.com/x">http://example.com/x</a>`,
		},
		{
			name:     "url ends at whitespace",
			input:    "https://a.b c",
			expected: `<a href="https://a.b">https://a.b</a> c`,
		},
		{
			name:     "url ends at line break",
			input:    "http://a.b\nnext",
			expected: `<a href="http://a.b">http://a.b</a><br>next`,
		},
		{
			name:     "not preceded by whitespace",
			input:    "xhttp://a.b",
			expected: "xhttp://a.b",
		},
		{
			name:     "scheme only",
			input:    "http:// x",
			expected: "http:// x",
		},
		{
			name:     "attribute escaping",
			input:    `http://a.b/?q="x"&y`,
			expected: `<a href="http://a.b/?q=&#34;x&#34;&amp;y">http://a.b/?q=&#34;x&#34;&amp;y</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Render(tt.input); got != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRender_TabStop(t *testing.T) {
	tr := New(Options{TabStop: 2})
	if got := tr.Render("\t\tx"); got != strings.Repeat("&nbsp;", 4)+"x" {
		t.Fatalf("Render = %q, want 4 &nbsp; then x", got)
	}
}

func TestRender_PlainTextOnlyGainsBreaks(t *testing.T) {
	inputs := []string{
		"hello\n",
		"one line\nanother line\n",
		"no newline at all",
		"mixed\r\nendings\rhere\n",
	}
	for _, in := range inputs {
		want := strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>").Replace(in)
		if got := Render(in); got != want {
			t.Errorf("Render(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender_NeverEmitsControlBytes(t *testing.T) {
	inputs := []string{
		"\x07",
		"\x07\x07\x07",
		"a\x07b\x08c\x07",
		"\x1b[31m\x07red\x07\x1b[39m",
		"\x08\x08\x08\x07",
	}
	for _, in := range inputs {
		got := Render(in)
		if strings.ContainsAny(got, "\x07\x08") {
			t.Errorf("Render(%q) = %q, contains bell or backspace", in, got)
		}
	}
}

func TestRender_EntitiesAreNotReinterpreted(t *testing.T) {
	got := Render("&lt;\x1b[31m<\x1b[39m")
	want := `&amp;lt;<span style="color: red">&lt;</span>`
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRender_ColourSpanWrapsExactlyText(t *testing.T) {
	for code, name := range colorNames {
		start := "\x1b[1;" + strconv.Itoa(code) + "m"
		got := Render(start + "T  x\x1b[1;39m")
		want := `<span style="color: ` + name + `">T  x</span>`
		if got != want {
			t.Errorf("colour %s: Render = %q, want %q", name, got, want)
		}
	}
}

func TestApplyControls_Terminates(t *testing.T) {
	in := strings.Repeat("x\x08", 1000) + strings.Repeat("\x08", 50) + "end"
	if got := Render(in); got != "end" {
		t.Fatalf("Render = %q, want %q", got, "end")
	}
}

func TestRender_AllocationProportionalToInput(t *testing.T) {
	in := strings.Repeat("2026-01-01 INFO something happened here ok\n", 25000)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	out := Render(in)
	runtime.ReadMemStats(&after)

	if !strings.HasSuffix(out, "ok<br>") {
		t.Fatalf("unexpected output tail %q", out[len(out)-10:])
	}
	allocated := after.TotalAlloc - before.TotalAlloc
	if limit := uint64(4 * len(in)); allocated > limit {
		t.Fatalf("Render allocated %d bytes for %d input bytes, want at most %d", allocated, len(in), limit)
	}
}

func BenchmarkRender(b *testing.B) {
	in := strings.Repeat("2026-01-01 \x1b[1;32mINFO\x1b[1;39m something <happened> here\n", 10000)
	b.SetBytes(int64(len(in)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Render(in)
	}
}
