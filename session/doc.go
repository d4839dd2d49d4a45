// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package session is the database/sql-backed facade the mapper-method
executor dispatches every call onto. DB implements Session against a
statement registry. A statement whose tree is static is prepared once and
cached as one *sql.Stmt per (statement id, DB) pair; a dynamic statement is
prepared for each call and closed afterwards. The cache is
adapted from the teacher's global prepared-statement cache,
keyed by statement id rather than by a generated cache id since statement
identity here comes from the registry rather than a Statement value.

Every call is logged through zap with a fresh correlation id from
google/uuid, so a single mapper-method invocation can be traced through to
its underlying SQL round trip.
*/
package session
