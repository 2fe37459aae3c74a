/*
Package errors declares the failure kinds of the accrual ledger.

Each kind is a root error registered with a stable code. Operations wrap
a root error with context as it travels up, and callers test the kind with
ErrXyz.Is(err) no matter how many layers were added. Code(err) and
Info(err, debug) turn an error into what a client is shown.

The first wrap records where the error was created:

	%s  prints the message
	%v  appends [file:line] of the creation point
	%+v prints the whole stack trace
*/
package errors
