// Package lua runs autoprefix scripts.
//
// A State is a gopher-lua runtime restricted to the base, table, string
// and math libraries. The functions that load code from disk or from
// strings are removed, and print writes to the state's output.
//
// RegisterAPI installs the global ks table, through which a script drives
// a workspace:
//
//	ks.editor.open("site.css")
//	ks.editor.select(0, 0, 3, 0)
//	ks.command.run("autoprefixer:run")
//	ks.editor.save()
//	ks.notify("info", ks.editor.text())
//
// ks.command.register(id, fn) adds a workspace command implemented in Lua;
// ks.config.get and ks.config.set read and override settings.
//
// A State is not safe for concurrent use. Commands registered by a script
// call back into its State and must be dispatched from the goroutine that
// runs the script.
package lua
