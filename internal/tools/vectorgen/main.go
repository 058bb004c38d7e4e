// Command vectorgen regenerates testdata/conformance/dagcbor/vectors.json.
//
//	go run ./internal/tools/vectorgen > testdata/conformance/dagcbor/vectors.json
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"xdao.co/dagcbor/bridge"
	"xdao.co/dagcbor/cidutil"
)

const (
	cidV1 = "bafyreidykglsfhoixmivffc5uwhcgshx4j465xwqntbmu43nb2dzqwfvae"
	cidV0 = "QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"
)

type vector struct {
	Name    string `json:"name"`
	JSON    string `json:"json"`
	DagCBOR string `json:"dagcbor"`
	Decoded string `json:"decoded"`
	CID     string `json:"cid"`
}

var inputs = []struct{ name, json string }{
	{"object", `{"hello":"world"}`},
	{"scalars", `[1,-1,1.5,true,false,null]`},
	{"whole float keeps fraction", `{"n":1.0}`},
	{"canonical key order", `{"ccc":3,"bb":1,"a":2}`},
	{"explicit cid field", `{"cid":"` + cidV1 + `"}`},
	{"implicit links", `{"links":["` + cidV0 + `","` + cidV1 + `"]}`},
	{"nested cid field", `{"ref":{"cid":"` + cidV0 + `"}}`},
	{"non-identifier cid field", `{"cid":"not-an-id"}`},
	{"integer beyond int64", `9223372036854775808`},
	{"max int64", `9223372036854775807`},
	{"min int64", `-9223372036854775808`},
	{"empty object", `{}`},
	{"empty array", `[]`},
	{"unicode", `"ünïcødé ✓"`},
}

func main() {
	out := make([]vector, 0, len(inputs))
	for _, in := range inputs {
		enc := bridge.EncodeDagCBOR(in.json)
		b, ok := enc.Unpack()
		if !ok {
			fail(in.name, enc.Message())
		}
		dec := bridge.DecodeDagCBOR(b)
		if !dec.IsOk() {
			fail(in.name, dec.Message())
		}
		id, err := cidutil.BlockCID(b, cidutil.SHA2_256)
		if err != nil {
			fail(in.name, err.Error())
		}
		out = append(out, vector{
			Name:    in.name,
			JSON:    in.json,
			DagCBOR: hex.EncodeToString(b),
			Decoded: dec.Value(),
			CID:     id.String(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Version int      `json:"version"`
		Vectors []vector `json:"vectors"`
	}{Version: 1, Vectors: out}); err != nil {
		panic(err)
	}
}

func fail(name, msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", name, msg)
	os.Exit(1)
}
