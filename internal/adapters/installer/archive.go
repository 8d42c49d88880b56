package installer

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// extractArchive unpacks a package archive into dest. Archives are tar
// streams, xz-compressed unless the file says otherwise.
func extractArchive(path, dest string) error {
	//nolint:gosec // Path is constructed from the trusted cache directory
	file, err := os.Open(path)
	if err != nil {
		return zerr.Wrap(err, "failed to open package archive")
	}
	defer func() {
		_ = file.Close()
	}()

	var stream io.Reader = file
	if strings.HasSuffix(path, ".xz") {
		reader, err := xz.NewReader(file)
		if err != nil {
			return zerr.Wrap(err, "corrupt package archive")
		}
		stream = reader
	}

	reader := tar.NewReader(stream)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, "failed to read package archive")
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := writeFileEntry(target, reader, header); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return zerr.Wrap(err, "failed to create directory")
			}
			if err := os.Symlink(header.Linkname, target); err != nil && !errors.Is(err, os.ErrExist) {
				return zerr.Wrap(err, "failed to create symlink")
			}
		default:
			// Other entry types are skipped.
		}
	}
}

func writeFileEntry(target string, reader io.Reader, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}

	//nolint:gosec // Target is validated by safeJoin
	file, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode)&os.ModePerm)
	if err != nil {
		return zerr.Wrap(err, "failed to create file")
	}

	//nolint:gosec // Archive contents are hash-verified before extraction
	_, err = io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return zerr.Wrap(err, "failed to extract file")
	}
	return nil
}

// safeJoin joins name under dest and rejects entries that would escape it.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.Clean("/"+name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		escErr := zerr.New("archive entry escapes destination")
		return "", zerr.With(escErr, "entry", name)
	}
	return target, nil
}
