// Package dialog defines the branching-conversation graph model and the
// structural engines that keep it consistent: the link registry, cascade
// deletion, orphan management, cycle-safe cloning and snapshots.
package dialog
