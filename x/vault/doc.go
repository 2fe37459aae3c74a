/*
Package vault implements the custody vault: it accepts the base asset,
credits the ledger one to one against it and returns the asset on
withdrawal.

Withdrawal is a two phase protocol. Reserve debits the ledger and returns a
single use receipt. Release moves the asset out of custody using that
receipt. The ledger is always mutated before the asset leaves the vault, and
the caller runs both phases in one transaction so that a failed release
rolls the debit back.

Solvency is not guaranteed. Accrued interest is a liability the reserves may
not cover, in which case release fails with ErrReleaseFailed.
*/
package vault
