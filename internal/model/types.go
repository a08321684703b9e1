// Package model defines the domain types for the edgeswitch-install CLI.
//
// The types here describe what gets staged into an Ansible checkout
// (the Layout table) and how an installation run progresses (Phase).
// They carry no behavior beyond validation and string conversion.
package model

import (
	"fmt"
	"path"
	"strings"
)

// Phase represents one step of an installation run.
// The transitions are strictly linear:
//
//	checking-precondition → creating-directories → copying-bulk-files
//	  → copying-plugin-files → done
//
// Any step may instead move to failed, which is terminal.
type Phase string

const (
	// PhaseCheckingPrecondition verifies the installation root is configured.
	PhaseCheckingPrecondition Phase = "checking-precondition"

	// PhaseCreatingDirectories creates the destination directories.
	PhaseCreatingDirectories Phase = "creating-directories"

	// PhaseCopyingBulkFiles copies every FileSet of the layout.
	PhaseCopyingBulkFiles Phase = "copying-bulk-files"

	// PhaseCopyingPluginFiles copies the individually named files.
	PhaseCopyingPluginFiles Phase = "copying-plugin-files"

	// PhaseDone means every step completed.
	PhaseDone Phase = "done"

	// PhaseFailed means a step returned an error. Nothing already
	// written is rolled back.
	PhaseFailed Phase = "failed"
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks whether the Phase value is one of the predefined phases.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseCheckingPrecondition, PhaseCreatingDirectories, PhaseCopyingBulkFiles,
		PhaseCopyingPluginFiles, PhaseDone, PhaseFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition follows this phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Phases lists the phases of a successful run in execution order.
var Phases = []Phase{
	PhaseCheckingPrecondition,
	PhaseCreatingDirectories,
	PhaseCopyingBulkFiles,
	PhaseCopyingPluginFiles,
	PhaseDone,
}

// FileSet is a bulk copy: every regular file directly inside SourceDir
// whose name matches Pattern is copied into DestDir.
//
// SourceDir is relative to the source tree; DestDir is relative to the
// installation root. Both use forward slashes.
type FileSet struct {
	SourceDir string `yaml:"source" json:"source"`
	Pattern   string `yaml:"pattern" json:"pattern"`
	DestDir   string `yaml:"dest" json:"dest"`
}

// Validate checks the FileSet fields.
func (f FileSet) Validate() error {
	if err := validateRelPath("file set source", f.SourceDir); err != nil {
		return err
	}
	if err := validateRelPath("file set dest", f.DestDir); err != nil {
		return err
	}
	if f.Pattern == "" {
		return fmt.Errorf("file set %s: pattern must not be empty", f.SourceDir)
	}
	if strings.Contains(f.Pattern, "/") {
		return fmt.Errorf("file set %s: pattern %q must not contain a path separator", f.SourceDir, f.Pattern)
	}
	// path.Match only reports ErrBadPattern while matching, so probe it once.
	if _, err := path.Match(f.Pattern, ""); err != nil {
		return fmt.Errorf("file set %s: invalid pattern %q: %w", f.SourceDir, f.Pattern, err)
	}
	return nil
}

// FileCopy copies one named file. Source is relative to the source tree,
// Dest is a file path relative to the installation root. The parent of
// Dest is expected to exist already.
type FileCopy struct {
	Source string `yaml:"source" json:"source"`
	Dest   string `yaml:"dest" json:"dest"`
}

// Validate checks the FileCopy fields.
func (f FileCopy) Validate() error {
	if err := validateRelPath("file source", f.Source); err != nil {
		return err
	}
	return validateRelPath("file dest", f.Dest)
}

// Layout is the full table of what an installation run stages:
// directories to create, bulk copies, then single-file copies.
type Layout struct {
	Directories []string   `yaml:"directories" json:"directories"`
	FileSets    []FileSet  `yaml:"fileSets" json:"fileSets"`
	Files       []FileCopy `yaml:"files" json:"files"`
}

// Validate checks every entry of the layout and returns the first problem.
func (l *Layout) Validate() error {
	for _, d := range l.Directories {
		if err := validateRelPath("directory", d); err != nil {
			return err
		}
	}
	for _, fs := range l.FileSets {
		if err := fs.Validate(); err != nil {
			return err
		}
	}
	for _, f := range l.Files {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateRelPath rejects empty, absolute and parent-escaping paths.
func validateRelPath(kind, p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%s path must not be empty", kind)
	}
	if path.IsAbs(p) || strings.HasPrefix(p, `\`) || (len(p) > 1 && p[1] == ':') {
		return fmt.Errorf("%s path %q must be relative", kind, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%s path %q must not leave its root", kind, p)
	}
	return nil
}

// ExitCode defines the process exit codes of the CLI.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigurationMissing indicates the installation root is unset
	// or empty. Nothing was written.
	ExitConfigurationMissing ExitCode = 2

	// ExitFilesystemFailure indicates a directory could not be created or
	// a file could not be copied. Earlier copies are left in place.
	ExitFilesystemFailure ExitCode = 3

	// ExitInvalidLayout indicates a layout file could not be read or
	// failed validation.
	ExitInvalidLayout ExitCode = 4
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
