package exec

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestParseTable(t *testing.T) {
	const output = `  PID STAT
    1 Ss
   12 S
  123 R+
  512 Z
 pid? S
 -4 S

 4242
`

	entries, err := ParseTable(strings.NewReader(output))
	if err != nil {
		t.Fatal("failed to parse:", err)
	}

	expect := []Entry{
		{PID: 1, State: "Ss"},
		{PID: 12, State: "S"},
		{PID: 123, State: "R+"},
		{PID: 512, State: "Z"},
		{PID: 4242, State: ""},
	}

	if !reflect.DeepEqual(entries, expect) {
		t.Errorf("unexpected entries\ngot:      %+v\nexpected: %+v", entries, expect)
	}
}

func TestEntryZombie(t *testing.T) {
	tests := map[string]bool{
		"Z":   true,
		"Z+":  true,
		"S":   false,
		"Ss":  false,
		"R+":  false,
		"":    false,
		"DZ+": false,
	}

	for state, zombie := range tests {
		if got := (Entry{PID: 1, State: state}).Zombie(); got != zombie {
			t.Errorf("state %q: expected zombie %v, got %v", state, zombie, got)
		}
	}
}

func TestPSTable(t *testing.T) {
	entries, err := PSTable{}.Processes(context.Background())
	if err != nil {
		t.Skip("ps unavailable:", err)
	}

	self := os.Getpid()

	for _, entry := range entries {
		if entry.PID == self {
			return
		}
	}

	t.Errorf("own PID %d not in process table", self)
}

func TestPSTableMissing(t *testing.T) {
	_, err := PSTable{Path: "/nonexistent/ps"}.Processes(context.Background())
	if err == nil {
		t.Error("expected error for missing ps")
	}
}
