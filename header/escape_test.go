package header

import "testing"

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{
		"plain",
		"a|b",
		"k=v;x,y",
		"a+b:c",
		`back\slash`,
		"|;,+=:\\",
		"",
	}
	for _, in := range cases {
		if got := unescapeValue(escapeValue(in)); got != in {
			t.Errorf("unescape(escape(%q)) = %q", in, got)
		}
	}
}

func TestEscapeValue(t *testing.T) {
	if got := escapeValue("a|b=c"); got != `a\|b\=c` {
		t.Errorf("escapeValue = %q", got)
	}
	if got := escapeValue("nothing here"); got != "nothing here" {
		t.Errorf("escapeValue changed a clean string: %q", got)
	}
}

func TestUnescapeTrailingBackslash(t *testing.T) {
	if got := unescapeValue(`abc\`); got != `abc\` {
		t.Errorf("trailing lone backslash = %q, want kept verbatim", got)
	}
}

func TestSplitUnescaped(t *testing.T) {
	got := splitUnescaped(`a|b\|c|d`, '|')
	want := []string{"a", `b\|c`, "d"}
	if len(got) != len(want) {
		t.Fatalf("split = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("split[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCutUnescaped(t *testing.T) {
	k, v, ok := cutUnescaped(`CONTEXT=a\=b=c`, '=')
	if !ok || k != "CONTEXT" || v != `a\=b=c` {
		t.Errorf("cut = %q %q %v", k, v, ok)
	}
	if _, _, ok := cutUnescaped(`no separator`, '='); ok {
		t.Error("cut found a separator where none exists")
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  a\nb\r\tc  ", false); got != "ab c" {
		t.Errorf("normalize = %q", got)
	}
	if got := normalizeText("  keep   inner  ", true); got != "keep   inner" {
		t.Errorf("normalize preserveInner = %q", got)
	}
}
