package main

import "flag"

// newFlagSet returns a FlagSet that reports parse errors to the caller
// instead of exiting the process, so run() can return a clean exit code.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs
}
