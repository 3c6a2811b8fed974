// Package config loads scenesync configuration.
//
// Translator bindings come from a CUE manifest:
//
//	translators: {
//	    mesh:  {kind: "recorder", types: ["Mesh", "StaticMesh"]}
//	    actor: {kind: "mirror", types: ["Actor"], classes: {StaticMeshActor: "Actor"}}
//	}
//	dispatcher: {suppressSessionWrites: true, tickMillis: 16}
//
// Process settings come from SCENESYNC_* environment variables; CLI flags
// override them.
package config
