package fsys

import "fmt"

// EntryLogger is the subset of the category logger used to report folder
// validation.
type EntryLogger interface {
	Log(style, message, category string) error
}

// FolderValidator creates folders on demand and reports each outcome
// through a category logger.
type FolderValidator struct {
	folders Folders
	log     EntryLogger
}

// NewFolderValidator returns a validator using folders and log.
func NewFolderValidator(folders Folders, log EntryLogger) *FolderValidator {
	return &FolderValidator{folders: folders, log: log}
}

// ValidateAndCreate ensures path exists, creating it when missing, and logs
// the result under category. It reports whether the folder was created.
// Errors from the log call itself are returned only when the folder
// operation succeeded.
func (v *FolderValidator) ValidateAndCreate(path, category string) (bool, error) {
	exists, err := v.folders.Exists(path)
	if err != nil {
		v.report("!error", fmt.Sprintf("Cannot inspect folder %s: %v", path, err), category)
		return false, err
	}
	if exists {
		return false, v.log.Log("!info", fmt.Sprintf("Folder exists: %s", path), category)
	}
	if err := v.folders.EnsureFolderExists(path); err != nil {
		v.report("!error", fmt.Sprintf("Failed to create folder %s: %v", path, err), category)
		return false, err
	}
	return true, v.log.Log("!done", fmt.Sprintf("Created folder: %s", path), category)
}

func (v *FolderValidator) report(style, msg, category string) {
	_ = v.log.Log(style, msg, category)
}
