// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package method analyzes a declared interface method once, up front, into a
Signature: its return-shape classification, the positions of any paging and
result-handler parameters, and a parameter-name resolver. Go has no runtime
method annotations, so the options a MyBatis-style framework would read off
@MapKey/@Param are instead supplied explicitly through Options at
registration time - the idiomatic substitute for reflective annotation
reads.
*/
package method
