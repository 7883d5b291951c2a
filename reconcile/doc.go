// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package reconcile records commits that consumed a credential but could not
store the vote and could not undo the consumption either.

Each entry names the election and the credential, never the choice. The
operator fix is to return the credential to unconsumed so its holder can
vote again:

	lions-clube-gaia -replay-reconcile

Replaying resets each listed credential once and then moves the journal
aside, so a credential that was later used legitimately is not reset a
second time.
*/
package reconcile
