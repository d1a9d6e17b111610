// Package install turns compressed binary bundles into runnable
// installation trees and augments them with extension artifacts.
//
// The installer is idempotent end to end: presence of the server executable
// short-circuits bundle extraction, and presence of an extension's control
// file short-circuits the extension download. A failed or interrupted run
// leaves the tree in a state the next run resumes from, because every
// idempotency check is structural (file existence) rather than a marker.
package install
