// Package submission drives an invitation request through its lifecycle as
// an explicit state machine.
//
// A [Controller] owns exactly one [State] per form session:
//
//	Idle --Submit--> Submitting --> Succeeded | Failed
//	  ^                  |               |
//	  +------Reset-------+------Reset----+
//
// Submit validates synchronously; invalid input is reported to the caller
// with no transition and no backend call. At most one submission is in
// flight per controller. The backend result is normalized by the artifact
// mapping table, and the controller never reaches Succeeded with a
// partially decoded artifact. Cancelling the context passed to Submit, or
// calling Reset, abandons the in-flight call and drops its late result.
//
// Observers receive every terminal state together with a reset callback;
// they never see intermediate states or raw backend responses.
package submission
