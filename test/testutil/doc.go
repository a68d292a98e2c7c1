// Package testutil provides helpers shared by the long-running test suites under test/.
package testutil
