// Package bondtest runs bond spying for the duration of a Go test.
//
//	func TestCheckout(t *testing.T) {
//		c := bondtest.Start(t)
//		c.Deploy(bond.NewAgent("payment.charge").Return("tx-1"))
//		checkout(bond.WithContext(t.Context(), c))
//	}
//
// The trace is reconciled against testdata/observations/TestCheckout.json
// when the test finishes. A test that already failed is reconciled in
// diagnostic-only mode and its reference file is never rewritten.
package bondtest

import (
	"context"
	"testing"

	"github.com/roach88/bond"
	"github.com/roach88/bond/internal/reconcile"
)

// FailedReason is the NoSave reason recorded for failed tests.
const FailedReason = "test reported failures before reconciliation"

// Start starts a bond Context identified by t.Name() and registers its
// reconciliation with t.Cleanup. A reconciliation mismatch fails t.
func Start(t testing.TB, opts ...bond.Option) *bond.Context {
	t.Helper()

	c, err := bond.Start(t.Name(), opts...)
	if err != nil {
		t.Fatalf("bond: %v", err)
		return nil
	}

	t.Cleanup(func() {
		var finish []bond.FinishOption
		if t.Failed() {
			finish = append(finish, bond.NoSave(FailedReason))
		}
		outcome, err := c.Finish(finish...)
		if err != nil {
			t.Errorf("bond: %v", err)
			return
		}
		if outcome.Status == reconcile.StatusAccepted {
			t.Logf("bond: reference observations rewritten (reconcile=%s): %s", outcome.Mode, outcome.Path)
		}
	})
	return c
}

// Context starts a bond Context like Start and returns t.Context()
// carrying it, ready to pass to code under test.
func Context(t testing.TB, opts ...bond.Option) (context.Context, *bond.Context) {
	t.Helper()
	c := Start(t, opts...)
	return bond.WithContext(t.Context(), c), c
}
