package dlg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/gff"
)

// Load reads and decodes a conversation file into a dialog graph.
func Load(path string) (*dialog.Dialog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dlg: read %s: %w", path, err)
	}
	f, err := gff.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("dlg: decode %s: %w", path, err)
	}
	if f.FileType != FileType {
		return nil, fmt.Errorf("%w: file type %q", ErrFileType, f.FileType)
	}
	return FromContainer(f.Root)
}

// Save validates, flattens and writes a dialog graph. Stale stored indices
// are repaired by the renumber inside ToContainer rather than written
// corrupt; any remaining error-severity finding aborts the save. The bytes
// go to a temp file in the target directory first and are renamed into
// place, so a failed save never leaves a partial file.
func Save(d *dialog.Dialog, path string) error {
	dialog.Renumber(d)
	if findings := dialog.Validate(d); dialog.HasErrors(findings) {
		return fmt.Errorf("dlg: refusing to save %s: %w", path, firstError(findings))
	}

	data, err := gff.Encode(ToContainer(d))
	if err != nil {
		return fmt.Errorf("dlg: encode %s: %w", path, err)
	}
	return writeAtomic(path, data)
}

func firstError(findings []dialog.Finding) error {
	for _, f := range findings {
		if f.Severity == dialog.SeverityError {
			return f
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("dlg: write %s: %w", path, err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dlg: write %s: %w", path, werr)
	}
	return nil
}
