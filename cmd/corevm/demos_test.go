package main

import (
	"testing"

	"github.com/wudi/corevm/config"
	"github.com/wudi/corevm/vm"
)

func TestEveryDemoRunsToCompletion(t *testing.T) {
	for _, d := range demos {
		mem := vm.NewMemory()
		sched := vm.NewSchedulerWithConfig(mem, config.Default())

		status := sched.Start(d.build())
		if status != vm.ExitOk {
			t.Fatalf("demo %q did not exit cleanly", d.name)
		}
		if sched.MainResult() == nil {
			t.Fatalf("demo %q returned no value", d.name)
		}
	}
}

func TestFindDemoUnknownName(t *testing.T) {
	if _, ok := findDemo("does-not-exist"); ok {
		t.Fatalf("expected findDemo to report unknown demo as absent")
	}
}

func TestListDemoNamesMentionsEveryDemo(t *testing.T) {
	listing := listDemoNames()
	for _, d := range demos {
		if !contains(listing, d.name) {
			t.Fatalf("listDemoNames output missing %q: %s", d.name, listing)
		}
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
