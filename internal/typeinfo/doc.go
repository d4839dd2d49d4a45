// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package typeinfo reflects Go struct types into column information keyed by
`db` struct tags, and holds the registry of TypeHandlers consulted when a
Parameter node carries a declared `typeHandler=` attribute. As much as
possible, reflection stays confined to this package.
*/
package typeinfo
