// Package monitor drives one asynchronous backend job from its task id to a
// terminal outcome.
//
// A Monitor owns at most one polling Session at a time. Starting a new session
// cancels the previous one. Each session queries the task status immediately,
// then again after a fixed interval for every in-flight snapshot, until the
// backend reports success or failure, the attempt ceiling is reached, a status
// query fails, or the caller cancels. Exactly one of OnComplete or OnError runs
// for a resolved session; cancellation runs neither.
package monitor
