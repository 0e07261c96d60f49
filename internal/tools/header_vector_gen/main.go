// Command header_vector_gen regenerates the header conformance vectors.
// Output goes to stdout; redirect per-vector sections into the files under
// testdata/conformance/header/wraithspec-vap-1/.
package main

import (
	"fmt"

	"github.com/dmaynor/WraithSpec/frameid"
	"github.com/dmaynor/WraithSpec/header"
)

var vectors = []struct {
	name string
	wire string
}{
	{"basic_1", "SID=x7k2m9|MODE=build|PHASE=coding|AC=1f|RD=3|CRef=wraith-core@2.1.0|TALLY=v:3,u:1,s:0"},
	{"defaults_1", "SID=abc"},
	{"escape_1", `SID=abc|CONTEXT=budget\: 40k\|hard cap`},
}

func main() {
	for _, v := range vectors {
		h, err := header.Decode(v.wire, nil)
		if err != nil {
			panic(err)
		}
		canon, err := header.Canonicalize(h)
		if err != nil {
			panic(err)
		}
		full, err := header.Encode(h, header.FormFull, nil)
		if err != nil {
			panic(err)
		}
		id, err := frameid.New(h)
		if err != nil {
			panic(err)
		}

		fmt.Printf("=== %s\n", v.name)
		fmt.Printf("%s.compact\t%s\n", v.name, v.wire)
		fmt.Printf("%s.full\t%s\n", v.name, full)
		fmt.Printf("%s.canon\t%s\n", v.name, canon)
		fmt.Printf("%s.cid\t%s\n", v.name, id)
	}
}
