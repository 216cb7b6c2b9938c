// Package config loads loader configuration from HCL files.
//
// A configuration names the arena size, the directories searched for module
// images, and the modules to load at startup:
//
//	loader {
//	  search_paths = ["./mods"]
//	  arena_size   = 1 * mb
//	  strict       = true
//	}
//
//	module "pktdrv" {
//	  path     = "pktdrv.mod"
//	  required = true
//	}
//
// The size variables kb and mb are available in expressions.
package config
