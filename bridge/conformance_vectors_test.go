package bridge

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"xdao.co/dagcbor/cidutil"
)

type conformanceVector struct {
	Name    string `json:"name"`
	JSON    string `json:"json"`
	DagCBOR string `json:"dagcbor"`
	Decoded string `json:"decoded"`
	CID     string `json:"cid"`
}

func loadConformanceVectors(t *testing.T) []conformanceVector {
	t.Helper()
	path := filepath.Join("..", "testdata", "conformance", "dagcbor", "vectors.json")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read vectors: %v", err)
	}
	var file struct {
		Version int                 `json:"version"`
		Vectors []conformanceVector `json:"vectors"`
	}
	if err := json.Unmarshal(b, &file); err != nil {
		t.Fatalf("parse vectors: %v", err)
	}
	if file.Version != 1 || len(file.Vectors) == 0 {
		t.Fatalf("unexpected vector file: version=%d vectors=%d", file.Version, len(file.Vectors))
	}
	return file.Vectors
}

func TestConformanceVectors_EncodeBytes(t *testing.T) {
	for _, v := range loadConformanceVectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			want, err := hex.DecodeString(v.DagCBOR)
			if err != nil {
				t.Fatalf("hex: %v", err)
			}
			out := EncodeDagCBOR(v.JSON)
			if !out.IsOk() {
				t.Fatalf("EncodeDagCBOR: %s", out.Message())
			}
			if !bytes.Equal(out.Value(), want) {
				t.Fatalf("bytes mismatch:\n got  %x\n want %s", out.Value(), v.DagCBOR)
			}
		})
	}
}

func TestConformanceVectors_DecodeText(t *testing.T) {
	for _, v := range loadConformanceVectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			b, err := hex.DecodeString(v.DagCBOR)
			if err != nil {
				t.Fatalf("hex: %v", err)
			}
			out := DecodeDagCBOR(b)
			if !out.IsOk() {
				t.Fatalf("DecodeDagCBOR: %s", out.Message())
			}
			if out.Value() != v.Decoded {
				t.Fatalf("decoded mismatch:\n got  %s\n want %s", out.Value(), v.Decoded)
			}

			// Decoded text re-encodes to the same bytes.
			again := EncodeDagCBOR(out.Value())
			if !again.IsOk() {
				t.Fatalf("re-encode: %s", again.Message())
			}
			if !bytes.Equal(again.Value(), b) {
				t.Fatalf("re-encoded bytes mismatch: %x", again.Value())
			}
		})
	}
}

func TestConformanceVectors_BlockCID(t *testing.T) {
	for _, v := range loadConformanceVectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			b, err := hex.DecodeString(v.DagCBOR)
			if err != nil {
				t.Fatalf("hex: %v", err)
			}
			id, err := cidutil.BlockCID(b, cidutil.SHA2_256)
			if err != nil {
				t.Fatalf("BlockCID: %v", err)
			}
			if id.String() != v.CID {
				t.Fatalf("CID mismatch: got %s want %s", id, v.CID)
			}
		})
	}
}
