// Package scripts bundles the Risor query scripts shipped with pyscope.
// Each script reads the index of one file through the runtime's host
// functions and emits its findings.
package scripts

import "embed"

// FS holds query/*.risor.
//
//go:embed query/*.risor
var FS embed.FS
