// Package installer stages the EdgeSwitch Ansible modules, module utils,
// unit tests and plugins into an Ansible checkout.
//
// An Installer is driven by a model.Layout table. A run moves through the
// phases defined in the model package strictly in order:
//
//  1. CheckPrecondition: the installation root must be non-empty
//  2. EnsureDirectories: create the layout directories (mkdir -p semantics)
//  3. CopyFileSets: non-recursive glob copies into those directories
//  4. CopyPluginFiles: single named files into directories that must
//     already exist in the Ansible tree
//
// The first error stops the run. Files already copied are left in place.
//
// Copy semantics follow what `cp` does with a shell glob: destination files
// are overwritten, subdirectories and dotfiles are not matched by `*`, and
// a glob matching nothing is reported but is not an error.
package installer
