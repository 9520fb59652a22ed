// Package notify delivers short push notices to recipients.
//
// The Dispatcher resolves recipients to delivery tokens, sends through a
// Gateway and records one Outcome per token. A bad token never stops the
// others, and dispatch never fails the task that triggered it.
package notify
