// Package orchestrator composes the registry, installer, supervisor and
// process controller into the instance lifecycle operations the CLI exposes.
//
// It is the only layer that decides what is fatal and what is merely a
// warning: installation, initialization and server start are fatal, while
// extension auto-install and user/database bootstrap degrade to warnings on
// the result. It also owns the stale-record policy. A record whose pid is no
// longer alive is treated as not-running everywhere; read paths (Info, List)
// report it without touching disk, while mutating paths (Start, Psql,
// InstallExtension) delete it before proceeding.
package orchestrator
