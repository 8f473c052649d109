package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StorageCheck verifies the data directory and, when it exists, that the
// reference server's database opens cleanly.
type StorageCheck struct {
	dataDir string
	dbFile  string
	open    func() error
	recover func() error
	autofix bool
}

// NewStorageCheck creates a new storage check. open is called only when the
// database file exists. recoverFn is called for a failed open when autofix is set.
func NewStorageCheck(dataDir, dbFile string, open, recoverFn func() error, autofix bool) *StorageCheck {
	return &StorageCheck{
		dataDir: dataDir,
		dbFile:  dbFile,
		open:    open,
		recover: recoverFn,
		autofix: autofix,
	}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.dataDir)
	switch {
	case os.IsNotExist(err):
		result.Items = append(result.Items, CheckItem{
			Label:  c.dataDir,
			Status: StatusWarn,
			Detail: "directory does not exist",
		})
		return result
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  c.dataDir,
			Status: StatusFail,
			Detail: fmt.Sprintf("inaccessible: %v", err),
		})
		return result
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  c.dataDir,
			Status: StatusFail,
			Detail: "path is not a directory",
		})
		return result
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  c.dataDir,
			Status: StatusPass,
		})
	}

	dbPath := filepath.Join(c.dataDir, c.dbFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		result.Items = append(result.Items, CheckItem{
			Label:  c.dbFile,
			Status: StatusPass,
			Detail: "not created yet",
		})
		return result
	}

	openErr := c.open()
	if openErr == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.dbFile,
			Status: StatusPass,
			Detail: dbPath,
		})
		return result
	}

	if !c.autofix || c.recover == nil {
		result.Items = append(result.Items, CheckItem{
			Label:   c.dbFile,
			Status:  StatusFail,
			Detail:  openErr.Error(),
			Fixable: c.recover != nil,
		})
		return result
	}

	if err := c.recover(); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.dbFile,
			Status: StatusFail,
			Detail: fmt.Sprintf("recovery failed: %v", err),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.dbFile,
		Status: StatusWarn,
		Detail: "corrupt database moved aside; a new one is created on next start",
	})
	return result
}
