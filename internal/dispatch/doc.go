// Package dispatch routes collaboration session events and native host
// notifications to the translator registered for each object's type.
//
// A Dispatcher owns four pieces of state:
//
//   - the translator registry (type identifier to translator)
//   - the session and host subscriptions, alive between Initialize and CleanUp
//   - the creation queue, an ordered set of objects awaiting a Create request
//   - the suppression depth gating native change notifications
//
// Everything runs on one goroutine. Session deliveries are usually posted to
// an engine.Loop; the dispatcher itself takes no locks.
//
// Session events are handled inside a suppression window by default, so a
// translator that writes to the host while applying a remote change does not
// see its own write come back as a local edit.
package dispatch
