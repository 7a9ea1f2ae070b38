// Package contracttests holds behaviour that every implementation of a
// storage interface must share, run against each implementation.
package contracttests
