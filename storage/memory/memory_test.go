package memory

import (
	"sync"
	"testing"

	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
	"xdao.co/dagcbor/storage/testkit"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New("")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return cas
	})
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	cas, _ := New("")
	id, err := cas.Put(testkit.Block("copy"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	b, _ := cas.Get(id)
	b[0] ^= 0xff
	again, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again[0] == b[0] {
		t.Fatalf("stored block was mutated through a returned slice")
	}
}

func TestMemory_ConcurrentPut(t *testing.T) {
	cas, _ := New("")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cas.Put(testkit.Block("shared")); err != nil {
				t.Errorf("Put failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if cas.Len() != 1 {
		t.Fatalf("expected 1 block, got %d", cas.Len())
	}
}

func TestMemory_OpenWithConfig(t *testing.T) {
	if _, _, err := casregistry.OpenWithConfig("memory", casregistry.UsageDaemon, map[string]string{"memory-hash": "sha3-256"}); err != nil {
		t.Fatalf("OpenWithConfig: %v", err)
	}
	if _, _, err := casregistry.OpenWithConfig("memory", casregistry.UsageCLI, map[string]string{"memory-hash": "md5"}); err == nil {
		t.Fatalf("expected unsupported hash error")
	}
}
