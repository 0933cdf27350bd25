// Package reconcile compares a test's observation trace against its stored
// reference file and resolves differences.
//
// # Lifecycle
//
// A test records observations (Recording). At teardown the trace is handed
// to Reconciler.Reconcile (Reconciling), which renders it in the reference
// file layout, loads the stored file and compares the two texts. The
// result is terminal (Resolved):
//
//   - StatusMatched: no differences
//   - StatusAccepted: differences were written to the reference file
//   - StatusUnsaved: differences were accepted but saving was disallowed
//   - StatusRejected: differences fail the test (*MismatchError)
//
// # Reference File Format
//
// One file per test, holding a JSON object that maps the test identifier
// to the ordered array of canonical observations, one observation per
// line:
//
//	{
//	  "TestCheckout": [
//	    {"__spyPoint__":"payment.charge","amount":42},
//	    {"__spyPoint__":"mail.send","to":"a@example.com"}
//	  ]
//	}
//
// Files are validated against an embedded JSON schema on load. A file that
// does not exist is an empty baseline and always a mismatch.
//
// # Modes
//
//   - abort: any difference fails, with a unified diff
//   - console: the user reviews the diff interactively and accepts or rejects
//   - accept: differences are saved and the test passes; only for
//     intentional baseline updates
package reconcile
