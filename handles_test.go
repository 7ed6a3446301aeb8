package access

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHandleIDsMonotonic(t *testing.T) {
	ht := newHandleTable()
	h1, _ := ht.add(kindDir, nil, "/a", 0, 0, 0, 0)
	h2, _ := ht.add(kindDir, nil, "/b", 0, 0, 0, 0)
	if h1.id != 1 || h2.id != 2 {
		t.Fatalf("ids %d, %d", h1.id, h2.id)
	}
	ht.remove(h1.id)
	h3, _ := ht.add(kindDir, nil, "/c", 0, 0, 0, 0)
	if h3.id != 3 {
		t.Fatalf("removed id reissued: %d", h3.id)
	}
	seen := map[uint32]bool{h1.id: true, h2.id: true, h3.id: true}
	if len(seen) != 3 {
		t.Fatal("duplicate ids")
	}
}

func TestHandleTokens(t *testing.T) {
	ht := newHandleTable()
	h, _ := ht.add(kindDir, nil, "/a", 0, 0, 0, 0)
	if h.token == 0 || h.token > 0x7FFF {
		t.Fatalf("token %d out of range", h.token)
	}
	if ht.lookup(h.id, h.token) != h {
		t.Fatal("credential lookup failed")
	}
	if ht.lookup(h.id, h.token^1) != nil {
		t.Fatal("wrong token accepted")
	}
	if ht.get(h.id) != h {
		t.Fatal("id lookup failed")
	}
}

func TestHandleRemoveClosesFile(t *testing.T) {
	ht := newHandleTable()
	f, err := os.Create(filepath.Join(t.TempDir(), "f"))
	if err != nil {
		t.Fatal(err)
	}
	h, _ := ht.add(kindFile, f, f.Name(), 0, 0, 0, 0)
	if !ht.remove(h.id) {
		t.Fatal("remove failed")
	}
	if _, err := f.Write([]byte("x")); err == nil {
		t.Fatal("file still open after remove")
	}
	if ht.remove(h.id) {
		t.Fatal("second remove succeeded")
	}
}

func TestHandleDeadLog(t *testing.T) {
	ht := newHandleTable()
	h1, _ := ht.add(kindDir, nil, "/a", 0, 0, 0, 0)
	h2, _ := ht.add(kindDir, nil, "/b", 0, 0, 0, 0)
	ht.remove(h1.id)
	ht.close(h2.id, h2.token)

	dead := ht.drainDead()
	if len(dead) != 2 || dead[0] != h1.id || dead[1] != h2.id {
		t.Fatalf("dead log %v", dead)
	}
	if len(ht.drainDead()) != 0 {
		t.Fatal("drain did not clear the log")
	}
}

func TestHandleCloseChecksToken(t *testing.T) {
	ht := newHandleTable()
	h, _ := ht.add(kindDir, nil, "/a", 0, 0, 0, 0)
	if ht.close(h.id, h.token^1) {
		t.Fatal("close accepted a bad token")
	}
	if !ht.close(h.id, h.token) {
		t.Fatal("close rejected the right token")
	}
}

func TestHandleTableCapacity(t *testing.T) {
	ht := newHandleTable()
	for i := 0; i < maxHandles; i++ {
		if _, ok := ht.add(kindDir, nil, "/d", 0, 0, 0, 0); !ok {
			t.Fatalf("add %d failed early", i)
		}
	}
	if _, ok := ht.add(kindDir, nil, "/d", 0, 0, 0, 0); ok {
		t.Fatal("table exceeded its capacity")
	}
	ht.remove(1)
	if _, ok := ht.add(kindDir, nil, "/d", 0, 0, 0, 0); !ok {
		t.Fatal("slot not reusable after remove")
	}
}
