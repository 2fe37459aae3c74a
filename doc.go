/*
Package accrual defines the types shared by every component of the
rate-preserving ledger: storage interfaces, holder addresses, time and
fixed-point amounts.

A domain (one chain) owns a single key-value store. Holder accounts, the
new-depositor rate, the vault liability and the bridge bookkeeping all live
in that store, under separate bucket prefixes, and every external call is
executed inside a cache-wrap of it so a failing call leaves nothing behind.

The components are layered leaf first:

  x/ledger  per-holder principal, rate and settlement watermark
  x/rate    the strictly decreasing rate offered to new deposits
  x/vault   base asset custody, minting and burning ledger credit
  x/bridge  cross-domain relocation of credit with its rate

The app package orchestrates them for one domain.
*/
package accrual
