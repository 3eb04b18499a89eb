package driver

import (
	"testing"

	goyaml "github.com/goccy/go-yaml"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestDTMSerializeIsByteStable exercises the spec §8 round-trip law
// "Serialize(namespace) -> Deserialize -> Serialize produces byte-equal
// output if no further additions occurred" using go-snaps the way the
// teacher's fixture suite snapshots serialized output (see
// internal/interp/fixture_test.go's TestDWScriptFixtures). The source here
// declares exactly one function, struct, enum, and variable so the
// snapshotted YAML is independent of Go's unordered map iteration.
func TestDTMSerializeIsByteStable(t *testing.T) {
	d := newTestDriver()
	errs := d.CompileSource("m.gly", `
		(module demo)
		(def greeting (var extern (p char)))
		(def point (struct extern ((x int) (y int))))
		(def color (enum extern int (red) (green) (blue)))
		(def area (fn extern-c int ((p (struct point))) 0))
	`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	mod := d.SnapshotDTM()
	first, err := goyaml.Marshal(mod)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded DTMModule
	if err := goyaml.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := goyaml.Marshal(&decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("serialize-deserialize-serialize is not byte-stable:\n%s\n---\n%s", first, second)
	}

	snaps.MatchSnapshot(t, string(first))
}
