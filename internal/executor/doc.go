// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package executor dispatches one resolved mapper-method invocation to its
session operation, coercing arguments in and results back out according to
the method's analyzed Signature, and runs the call through an ordered chain
of Interceptors.

This is the dynamic-SQL core's single point of contact with the session
facade: every command.Kind maps to exactly one session.Session method here,
and every result-shape decision (single row, slice, map, cursor, streamed
callback, or a DML row count) is made from the method.Signature computed
once at registration time rather than re-derived per call.
*/
package executor
