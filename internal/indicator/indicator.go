// Package indicator provides the technical indicator calculations shared by
// the built-in strategies. All functions operate on a bar window ordered
// oldest first and report ok=false when the window is too short for the
// requested period.
package indicator
