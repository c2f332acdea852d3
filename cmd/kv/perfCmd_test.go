package kv

import (
	"strconv"
	"testing"
)

// The flag defaults are the source of truth; the package-level fallbacks
// must agree with them so a skipped flag binding cannot change behavior.
func TestPerfFlagDefaultsMatchFallbacks(t *testing.T) {
	cases := map[string]int{
		"ops":              perfOps,
		"large-value-size": perfLargeValueSizeKB,
		"keys":             perfKeySpread,
	}

	for name, fallback := range cases {
		flag := perfTestCmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("flag %q not registered", name)
		}
		if flag.DefValue != strconv.Itoa(fallback) {
			t.Errorf("flag %q defaults to %s, fallback is %d", name, flag.DefValue, fallback)
		}
	}
}
