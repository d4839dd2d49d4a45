// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package binding implements the dynamic-SQL node tree: the scoped binding
context nodes evaluate against, the parser that turns a templated statement
body into a tree of nodes, and the tree-evaluation that produces a BoundSql
(final SQL text plus an ordered parameter list) from a tree and a caller
argument.

Every node is immutable after parsing. A binding.Context is stack-local to
a single evaluation and is never shared across goroutines.
*/
package binding
