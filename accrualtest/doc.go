/*
Package accrualtest provides helpers for testing code built on top of the
accrual ledger: random addresses, amounts and stores.
*/
package accrualtest
