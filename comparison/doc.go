// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package comparison drives the lifecycle of comparison jobs.

A comparison is open until the analysis service finalizes it, and finished
afterwards. Nothing about a finished comparison may change.

# Triggering

Reading an open comparison (GetOrTrigger) re-triggers the computation when
it was never triggered or the last trigger is older than the lock window
(24h by default). The lock timestamp is written before the trigger call. A
failed trigger is logged and the read still succeeds. The guard is a plain
read followed by a write, so concurrent readers at the window boundary may
trigger twice.

# Callbacks

The analysis service reports progress through Actualize and closes the job
through Finalize. Both updates are guarded by finished = false in the
store. When the guard matches nothing the controller re-reads the row to
return ErrFinished for a finished comparison or store.ErrNotFound for a
missing or foreign one.
*/
package comparison
