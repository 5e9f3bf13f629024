// Package staging manages per-property holding directories for corrected
// images awaiting review. Corrections are written here first and only copied
// over the originals once accepted.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DirName is the staging subdirectory created inside a property's folder.
const DirName = ".straightened"

// Area resolves staging paths under a root directory holding one
// subdirectory per property.
type Area struct {
	Root string
}

// Dir returns the staging directory for a property, creating it if needed.
func (a Area) Dir(propertyID string) (string, error) {
	if propertyID == "" {
		return "", fmt.Errorf("property id is empty")
	}
	dir := filepath.Join(a.Root, propertyID, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging dir for %s: %w", propertyID, err)
	}
	return dir, nil
}

// Path returns the staged location for an image of the given property
// without creating anything.
func (a Area) Path(propertyID, filename string) string {
	return filepath.Join(a.Root, propertyID, DirName, filename)
}

// Clear removes a property's staging directory and its contents. A missing
// directory is not an error.
func (a Area) Clear(propertyID string) error {
	if propertyID == "" {
		return fmt.Errorf("property id is empty")
	}
	dir := filepath.Join(a.Root, propertyID, DirName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing staging for %s: %w", propertyID, err)
	}
	return nil
}

// ClearAll removes staging directories for every property under the root.
func (a Area) ClearAll() error {
	entries, err := os.ReadDir(a.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("listing properties: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := a.Clear(e.Name()); err != nil {
			return err
		}
	}
	return nil
}

// Promote copies a staged image over the original and removes the staged
// copy on success.
func (a Area) Promote(propertyID, filename string) error {
	return Replace(a.Path(propertyID, filename), filepath.Join(a.Root, propertyID, filename))
}

// Replace copies a staged file over an original and removes the staged copy.
// The copy happens before the delete so a failure partway leaves the staged
// file intact.
func Replace(staged, original string) error {
	if _, err := os.Stat(staged); err != nil {
		return fmt.Errorf("staged file %s: %w", staged, err)
	}

	if err := copyFile(staged, original); err != nil {
		return fmt.Errorf("promoting %s: %w", staged, err)
	}
	if err := os.Remove(staged); err != nil {
		// The original is already updated; a leftover staged file is
		// harmless and will go away on the next cleanup.
		logrus.WithError(err).WithField("path", staged).Warn("could not remove staged file after promote")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
