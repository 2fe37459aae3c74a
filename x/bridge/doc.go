/*
Package bridge implements relocation of ledger value between domains.

The source domain settles the holder, captures the rate the holder is
entitled to and debits the amount. The pair (amount, rate) is serialized
into a fixed 64 byte payload and handed to a transport together with the
routing information. The destination domain credits the recipient with the
same non-downgrade rule a local transfer uses.

Nothing accrues while value is in transit. Once the source debit is
committed it is final: only the destination can make the holder whole.

The transport delivers at least once. Applying the same envelope twice
credits twice unless the replay guard is enabled in the domain
configuration.

Every sent envelope is also kept in the outbox of the source domain, written
in the transaction of the debit. The host acknowledges an envelope once the
destination applied it and resends what is left after a restart, so a
transport that loses its queue never loses value.
*/
package bridge
