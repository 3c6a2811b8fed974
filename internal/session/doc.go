// Package session models the shared, session-replicated side of the scene.
//
// An Object is the synchronized representation of one entity. It carries a
// type identifier, a property tree rooted at a DictionaryProperty, a position
// in the object hierarchy, and a lock state. The session owns objects; the
// dispatcher and translators only hold references to them.
//
// Session is the interface the dispatcher consumes: a set of typed event
// Channels and a Create primitive. Memory is an in-process implementation used
// by tests, the scenario harness and the CLI. It distinguishes two kinds of
// mutation:
//
//   - Local mutations (property setters, Create) are what this process sends.
//     They are recorded in the outbox and, except for Create, never fire
//     events back at the sender.
//   - Remote mutations (the Remote* methods) simulate other collaborators.
//     They fire the matching channel, through the Scheduler when one is set.
package session
