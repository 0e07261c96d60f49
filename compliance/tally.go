package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmaynor/WraithSpec/document"
	"github.com/dmaynor/WraithSpec/header"
)

// markerRe matches inline claim markers: [v], [u], [s], optionally followed
// by a status emoji, any case, internal whitespace tolerated.
var markerRe = regexp.MustCompile(`(?i)\[([vus])\s*(?:✅|⚠️|❌)?\]`)

// tallyPairRe accepts both tally grammars: `v:3,u:1,s:0` and `v=3;u=1;s=0`.
var tallyPairRe = regexp.MustCompile(`(?i)\b([vus])\s*[:=]\s*(\d+)`)

// CountMarkers tallies the inline claim markers in a text body.
func CountMarkers(text string) header.Tally {
	var t header.Tally
	for _, m := range markerRe.FindAllStringSubmatch(text, -1) {
		switch strings.ToLower(m[1]) {
		case "v":
			t.Validated++
		case "u":
			t.Uncertain++
		case "s":
			t.Superseded++
		}
	}
	return t
}

// checkTallyIntegrity cross-checks the declared claim tally against the
// inline markers actually present in the text. Each mismatched bucket is one
// record; declaring claims that the text does not carry (or vice versa) is
// at least a PARTIAL condition regardless of the constraint score.
func checkTallyIntegrity(out Output) []Record {
	declared, ok := declaredTally(out.Fields)
	if !ok || out.Text == "" {
		return nil
	}
	counted := CountMarkers(out.Text)

	var records []Record
	mismatch := func(name string, want, got int) {
		if want == got {
			return
		}
		records = append(records, Record{
			Kind:    document.Optional,
			Path:    "output.tally",
			Message: fmt.Sprintf("tally declares %d %s claim(s), text carries %d", want, name, got),
			Weight:  Weight(document.Optional),
		})
	}
	mismatch("validated", declared.Validated, counted.Validated)
	mismatch("uncertain", declared.Uncertain, counted.Uncertain)
	mismatch("superseded", declared.Superseded, counted.Superseded)
	return records
}

// declaredTally digs the claim tally out of the output fields, accepting a
// header.Tally value, a nested v/u/s map, or either serialized grammar.
func declaredTally(fields map[string]any) (header.Tally, bool) {
	val, ok := lookupPath(fields, "header.CLAIMS")
	if !ok {
		val, ok = lookupPath(fields, "tally")
	}
	if !ok {
		return header.Tally{}, false
	}
	switch v := val.(type) {
	case header.Tally:
		return v, true
	case map[string]any:
		var t header.Tally
		get := func(key string) int {
			n, _ := numeric(v[key])
			return int(n)
		}
		t.Validated = get("v")
		t.Uncertain = get("u")
		t.Superseded = get("s")
		return t, true
	case string:
		return parseTallyString(v)
	default:
		return header.Tally{}, false
	}
}

func parseTallyString(s string) (header.Tally, bool) {
	var t header.Tally
	pairs := tallyPairRe.FindAllStringSubmatch(s, -1)
	if len(pairs) == 0 {
		return header.Tally{}, false
	}
	for _, m := range pairs {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return header.Tally{}, false
		}
		switch strings.ToLower(m[1]) {
		case "v":
			t.Validated = n
		case "u":
			t.Uncertain = n
		case "s":
			t.Superseded = n
		}
	}
	return t, true
}
