// Package config loads configuration files written as sandboxed scripts and
// exposes the flat table they produce.
//
// # Overview
//
// A configuration file is a Lua chunk (or, for files ending in ".star", a
// Starlark file) that evaluates to a single table of string keys mapped to
// string or number values:
//
//	-- app.lua
//	local port = 8000 + 80
//	return {
//	    name = "widget",
//	    port = port,
//	    label = "v" .. tostring(2),
//	}
//
// The Starlark form ends with a dict expression instead of a return:
//
//	port = 8000 + 80
//	{"name": "widget", "port": port}
//
// # Sandbox
//
// Each Load creates its own engine instance with only the base library
// opened. Before the script runs, every callable global outside
// sandbox.LuaAllowList is removed (assert, ipairs, next, pairs, print,
// tonumber, tostring and type remain). Scripts that touch os, io, require,
// load and friends fail when they use them, and Load reports a load failure.
// The script's print output goes to the configured logger at debug level.
//
// # Queries
//
// Get and Entries walk the live table in engine order. The walk is strict:
// it stops at the first entry whose key is not a string, and Entries also
// stops at the first value that is neither a string nor a number. Numbers
// are rendered with the engine's own conversion, so 42 becomes "42" and
// 1.5 becomes "1.5".
//
//	h, err := config.Load(ctx, "app.lua", config.Options{})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	name, err := h.Get("name")
//	switch {
//	case config.IsNotFound(err):
//	    // absent
//	case config.IsStructuralViolation(err):
//	    // malformed table
//	}
//
// # Reloading
//
// Watcher reloads a file when it changes and swaps the active handle,
// keeping the previous one when the new version fails to load.
//
// # Thread Safety
//
// A Handle must not be used from several goroutines at once. Watcher.Do
// serializes access for callers that share one.
package config
