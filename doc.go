// Package bond is a deterministic spy and mock framework.
//
// Production code marks spy points where it can be observed and, under
// test, have its behavior replaced:
//
//	amount, ok, err := bond.SpyAs[int](bond.Obs(ctx, "order", id), "payment.charge")
//	if err != nil {
//		return err
//	}
//	if !ok {
//		amount = charge(id)
//	}
//
// Outside a test the spy call is inert and returns an absent result. Under
// a started Context every spy call appends its observation, canonical JSON
// with the spy point name first, to the test's trace, and the most recently
// deployed matching Agent supplies the result.
//
// When the test finishes, the trace is reconciled against the test's
// reference file under the observation directory:
//
//   - abort: any difference fails the test with a unified diff
//   - console: differences are reviewed interactively
//   - accept: differences are written back and the test passes
//
// Reconcile mode, observation directory and logging are read from BOND_*
// environment variables and an optional YAML or CUE file named by
// BOND_CONFIG; see Settings.
//
// # Lifecycle
//
// A Context moves through three states:
//
//	Recording → Reconciling → Resolved
//
// Spy calls after Finish are inert and the trace is no longer extended.
// Package bondtest ties the lifecycle to testing.TB.
package bond
