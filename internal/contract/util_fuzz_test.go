package contract

import (
	"testing"
)

// FuzzParseContextColumns fuzzes the context column parser with random specs.
func FuzzParseContextColumns(f *testing.F) {
	seeds := []string{
		"athlete:0,session:1,timestamp:3",
		"timestamp:7",
		"",
		",,",
		"session:-1",
		"speed:2",
		"athlete:0:1",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, spec string) {
		cols, err := ParseContextColumns(spec)
		if err != nil {
			return
		}
		if cols.Athlete < 0 || cols.Session < 0 || cols.Timestamp < 0 {
			t.Errorf("negative column index from %q: %+v", spec, cols)
		}
	})
}
