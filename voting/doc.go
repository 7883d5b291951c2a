// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements the credential lifecycle: issuing credentials,
validating them, and committing exactly one vote per credential.

# Flow

	codes, _ := svc.Issue(ctx, electionID, 100)      // plaintexts, shown once
	red, err := svc.Redeem(ctx, code)                // checks only, consumes nothing
	err = svc.Commit(ctx, red.SessionProof, choiceID) // consume + vote

Redeem returns a signed, short-lived session proof instead of consuming the
credential, so a voter who abandons the ballot can still vote later.
Commit re-checks the election window and the choice, then consumes the
credential with a conditional update and inserts the vote:

  - With a store.Transactor both writes run in one transaction.
  - Otherwise a failed vote insert releases the credential. If releasing
    fails too, Commit returns *PartialFailureError and the credential is
    written to the reconciliation journal.

Concurrent commits for one credential produce exactly one success; the
rest get ErrAlreadyUsed.

# Anonymity

Vote rows carry a random id, the election and the choice. Log lines never
carry a plaintext credential, a session proof, or a credential id together
with a choice id.
*/
package voting
