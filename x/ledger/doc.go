/*
Package ledger implements the accrual ledger: per holder principal, accrual
rate and settlement watermark.

A balance grows linearly with time. Growth is never pushed to holders.
Instead every operation that touches an account first settles it, turning
the growth since the last settlement into principal. This guarantees that
no accrual window is lost or counted twice.

Inbound credits follow the rate non-downgrade rule. A fresh (empty) account
takes whatever rate is offered. An account holding a balance only ever
moves to a higher rate.

The ledger does not know who may call it. Every mutating call requires a
Capability minted by the orchestrating layer.
*/
package ledger
