// Package fuzztests houses Go fuzz harnesses for the launcher's input
// parsers: the positional argument list and the TOML settings file. They
// guard against panics and check that accepted inputs satisfy the resolved
// configuration's invariants.
package fuzztests
