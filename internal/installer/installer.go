package installer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

// dirMode is the permission used for directories created under the root.
const dirMode = 0o755

// ErrRootNotSet is returned by CheckPrecondition (and Run) when the
// installation root is empty. No filesystem change has been made.
var ErrRootNotSet = errors.New("installation root is not set")

// Config holds everything an Installer needs. It is resolved once by the
// caller; the installer itself never consults the process environment.
type Config struct {
	// Root is the Ansible checkout that receives the files. Required.
	Root string

	// SourceDir is the tree the layout's source paths are relative to.
	// Empty means the current working directory.
	SourceDir string

	// Layout is the staging table. Nil means DefaultLayout().
	Layout *model.Layout

	// Logger receives debug and warning output. Nil discards it.
	Logger *log.Logger

	// OnPhase, if set, is called on every phase transition.
	OnPhase func(model.Phase)
}

// CopiedFile records one completed copy.
type CopiedFile struct {
	Source string `json:"source" yaml:"source"`
	Dest   string `json:"dest" yaml:"dest"`
}

// Result summarizes what a run did, up to the point where it stopped.
type Result struct {
	// Phase is the last phase reached: PhaseDone or PhaseFailed.
	Phase model.Phase `json:"phase" yaml:"phase"`

	// Directories lists the absolute directories ensured.
	Directories []string `json:"directories" yaml:"directories"`

	// Copied lists every file copied, in order.
	Copied []CopiedFile `json:"copied" yaml:"copied"`

	// Unmatched lists bulk copies whose pattern matched no file.
	Unmatched []model.FileSet `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
}

// StepError is a filesystem failure annotated with the phase and the path
// that caused it.
type StepError struct {
	Phase model.Phase
	Path  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Phase, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Installer copies a Layout from a source tree into an installation root.
// It is not safe for concurrent use; one Installer performs one run.
type Installer struct {
	root      string
	sourceDir string
	layout    model.Layout
	logger    *log.Logger
	onPhase   func(model.Phase)
	phase     model.Phase
	result    Result
}

// New creates an Installer from cfg. Validation of the root is deferred to
// CheckPrecondition so that a run reports it as its first step.
func New(cfg Config) *Installer {
	layout := DefaultLayout()
	if cfg.Layout != nil {
		layout = *cfg.Layout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sourceDir := cfg.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}

	return &Installer{
		root:      cfg.Root,
		sourceDir: sourceDir,
		layout:    layout,
		logger:    logger,
		onPhase:   cfg.OnPhase,
	}
}

// Phase returns the phase the installer is currently in. Before Run it is
// the empty Phase.
func (i *Installer) Phase() model.Phase {
	return i.phase
}

// Run performs every phase in order and stops at the first error.
// The returned Result is never nil and reflects the work done so far.
func (i *Installer) Run() (*Result, error) {
	steps := []struct {
		phase model.Phase
		fn    func() error
	}{
		{model.PhaseCheckingPrecondition, i.CheckPrecondition},
		{model.PhaseCreatingDirectories, i.EnsureDirectories},
		{model.PhaseCopyingBulkFiles, i.CopyFileSets},
		{model.PhaseCopyingPluginFiles, i.CopyPluginFiles},
	}

	for _, step := range steps {
		i.enter(step.phase)
		if err := step.fn(); err != nil {
			i.enter(model.PhaseFailed)
			i.result.Phase = model.PhaseFailed
			return &i.result, err
		}
	}

	i.enter(model.PhaseDone)
	i.result.Phase = model.PhaseDone
	return &i.result, nil
}

func (i *Installer) enter(p model.Phase) {
	i.phase = p
	i.logger.Debug("phase", "name", p)
	if i.onPhase != nil {
		i.onPhase(p)
	}
}

// CheckPrecondition fails with ErrRootNotSet when the installation root is
// empty. A whitespace-only root counts as set, as with `[ -z "$ANSIBLE_HOME" ]`.
func (i *Installer) CheckPrecondition() error {
	if i.root == "" {
		return ErrRootNotSet
	}
	return nil
}

// EnsureDirectories creates every layout directory under the root,
// including missing parents. Existing directories are left unchanged.
func (i *Installer) EnsureDirectories() error {
	for _, rel := range i.layout.Directories {
		dir := i.destPath(rel)
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return &StepError{Phase: model.PhaseCreatingDirectories, Path: dir, Err: err}
		}
		i.logger.Debug("directory ready", "path", dir)
		i.result.Directories = append(i.result.Directories, dir)
	}
	return nil
}

// CopyFileSets performs every bulk copy of the layout. A set whose pattern
// matches nothing is logged and skipped; any copy failure is returned.
func (i *Installer) CopyFileSets() error {
	for _, set := range i.layout.FileSets {
		srcDir := i.sourcePath(set.SourceDir)
		dstDir := i.destPath(set.DestDir)

		files, err := matchFiles(srcDir, set.Pattern)
		if err != nil {
			return &StepError{Phase: model.PhaseCopyingBulkFiles, Path: srcDir, Err: err}
		}
		if len(files) == 0 {
			i.logger.Warn("no files matched", "dir", srcDir, "pattern", set.Pattern)
			i.result.Unmatched = append(i.result.Unmatched, set)
			continue
		}

		// Unreadable entries do not stop their readable siblings, as with
		// cp; the first one fails the set once the rest are copied.
		var unreadable *StepError
		for _, f := range files {
			if f.err != nil {
				if unreadable == nil {
					unreadable = &StepError{Phase: model.PhaseCopyingBulkFiles, Path: f.path, Err: f.err}
				}
				continue
			}
			dst := filepath.Join(dstDir, filepath.Base(f.path))
			if err := copyFile(f.path, dst, f.mode); err != nil {
				return &StepError{Phase: model.PhaseCopyingBulkFiles, Path: dst, Err: err}
			}
			i.recordCopy(f.path, dst)
		}
		if unreadable != nil {
			return unreadable
		}
	}
	return nil
}

// CopyPluginFiles copies the individually named files. Destination parent
// directories are not created.
func (i *Installer) CopyPluginFiles() error {
	for _, fc := range i.layout.Files {
		src := i.sourcePath(fc.Source)
		dst := i.destPath(fc.Dest)

		info, err := os.Stat(src)
		if err != nil {
			return &StepError{Phase: model.PhaseCopyingPluginFiles, Path: src, Err: err}
		}
		if info.IsDir() {
			return &StepError{Phase: model.PhaseCopyingPluginFiles, Path: src, Err: errIsDirectory}
		}

		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			return &StepError{Phase: model.PhaseCopyingPluginFiles, Path: dst, Err: err}
		}
		i.recordCopy(src, dst)
	}
	return nil
}

func (i *Installer) recordCopy(src, dst string) {
	i.logger.Debug("copied", "src", src, "dst", dst)
	i.result.Copied = append(i.result.Copied, CopiedFile{Source: src, Dest: dst})
}

func (i *Installer) sourcePath(rel string) string {
	return filepath.Join(i.sourceDir, filepath.FromSlash(rel))
}

func (i *Installer) destPath(rel string) string {
	return filepath.Join(i.root, filepath.FromSlash(rel))
}
