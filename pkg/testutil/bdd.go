package testutil

import "testing"

// Given, When, and Then name sub-tests after the scenario step they carry,
// without pulling in a BDD framework.
func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }
func When(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "When", desc, fn) }
func Then(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "Then", desc, fn) }

func step(t *testing.T, word, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(word+" "+desc, fn)
}
