// Package model defines the domain types and value objects for the
// edgeswitch-install CLI.
//
// This package contains pure data structures with no external dependencies.
// Layout, FileSet and FileCopy describe the staging table; Phase names the
// steps of an installation run.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
