/*
Package rate implements the governor of the rate assigned to new deposits.

The rate can only ever go down. Holders who deposited early keep the higher
rate they were credited with, which is the incentive the whole ledger
protects.
*/
package rate
