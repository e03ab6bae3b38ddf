package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"composer-push/pkg/utils"
)

// registerTemp hands intermediate files to the interrupt cleanup.
var registerTemp = utils.AddTempFile

// stampManifest rewrites the version of the manifest entry, when the archive
// has one. The archive must be complete before this runs.
func stampManifest(spec Spec, log zerolog.Logger) error {
	name := ManifestName
	if spec.Subdirectory != "" {
		name = path.Join(spec.Subdirectory, ManifestName)
	}

	zr, err := zip.OpenReader(spec.Destination)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	defer zr.Close()

	var manifest *zip.File
	for _, f := range zr.File {
		if f.Name == name {
			manifest = f
			break
		}
	}
	if manifest == nil {
		log.Debug().Str("entry", name).Msg("No package manifest in the archive, version not updated")
		return nil
	}
	if spec.Version == "" {
		log.Debug().Str("entry", name).Msg("No version given, package manifest left untouched")
		return nil
	}

	content, err := readEntry(manifest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	stamped, err := stampVersion(content, spec.Version)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchiveCreation, name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(spec.Destination), ".composer-push-*.zip")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	registerTemp(tmp.Name())
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := rewrite(zr, tmp, manifest, stamped); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	if err := zr.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	if err := os.Rename(tmp.Name(), spec.Destination); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}

	log.Debug().Str("entry", name).Str("version", spec.Version).Msg("Package manifest version updated")
	return nil
}

// stampVersion sets the version field of a JSON object document, keeping the
// rest of the document as written.
func stampVersion(content []byte, version string) ([]byte, error) {
	if !gjson.ValidBytes(content) || !gjson.ParseBytes(content).IsObject() {
		return nil, fmt.Errorf("not a JSON object")
	}
	return sjson.SetBytes(content, "version", version)
}

// rewrite copies every entry of zr to w, replacing the manifest content.
func rewrite(zr *zip.ReadCloser, w io.Writer, manifest *zip.File, content []byte) error {
	zw := zip.NewWriter(w)
	for _, f := range zr.File {
		if f != manifest {
			if err := zw.Copy(f); err != nil {
				return err
			}
			continue
		}

		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}
		header.SetMode(f.Mode())
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := entry.Write(content); err != nil {
			return err
		}
	}
	return zw.Close()
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
