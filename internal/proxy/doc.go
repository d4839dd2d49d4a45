// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package proxy builds a concrete mapper value at runtime from a statement
registry and an executor.

A genuine dynamic proxy - a fresh concrete type that satisfies an
arbitrary, caller-chosen interface, built without any compile-time
declaration of that type - has no equivalent in Go's reflect package:
reflect.MakeFunc synthesizes a single function value from a func type, but
there is no MakeInterface, and struct types cannot gain methods at
runtime. The idiomatic substitute used throughout this module's generated
mapper values (see the example package) is a struct of exported,
identically-named func-typed fields mirroring the declared operations;
Bind uses reflect.MakeFunc to fill each field with a closure that resolves
to a Command and Signature once, then dispatches through an
executor.Executor on every call. Calling m.FindByID(ctx, id) on such a
value invokes the field directly - no interface satisfaction is required
or attempted. A mapper type that additionally needs identity methods
(String, Equal and so on) defines them directly; Bind only ever touches
func-typed fields, so hand-written methods are left alone, matching the
"invoke directly, no session call" treatment those methods get in the
original.

Concurrent first-time construction for the same mapper type is collapsed
with golang.org/x/sync's singleflight, so the per-type Engine (and the
reflection work that builds it) is built at most once even under
concurrent callers.
*/
package proxy
