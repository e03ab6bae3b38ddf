package archive

import (
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
)

const (
	// MediaType of the produced archive.
	MediaType = "application/zip"
	// ManifestName is the package manifest whose version is stamped.
	ManifestName = "composer.json"
)

var ErrArchiveCreation = errors.New("impossible to create the archive")

// Spec describes one archive to build.
type Spec struct {
	Source         string
	Destination    string
	Version        string
	Subdirectory   string
	Ignores        []string
	// ExportPatterns are .gitattributes export-ignore globs.
	ExportPatterns []string
	KeepDotFiles   bool
}

// entryName maps a source-relative path to its name inside the archive.
func (s Spec) entryName(rel string) string {
	rel = filepath.ToSlash(rel)
	if s.Subdirectory == "" {
		return rel
	}
	return path.Join(s.Subdirectory, rel)
}

// Directory archives spec.Source into spec.Destination, then stamps the
// version of the embedded manifest, if any.
func Directory(ctx context.Context, spec Spec, log zerolog.Logger) (ocispec.Descriptor, error) {
	log.Debug().Str("destination", spec.Destination).Msg("Create ZIP file")

	count, err := writeEntries(ctx, spec, log)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	log.Info().Int("entries", count).Str("destination", spec.Destination).Msg("Zip archive done")

	if err := stampManifest(spec, log); err != nil {
		return ocispec.Descriptor{}, err
	}

	return describe(spec)
}

func writeEntries(ctx context.Context, spec Spec, log zerolog.Logger) (int, error) {
	source, err := filepath.Abs(spec.Source)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	destination, err := filepath.Abs(spec.Destination)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}

	out, err := os.Create(destination)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	f := newFilter(spec.Ignores, spec.ExportPatterns, spec.KeepDotFiles)
	count := 0

	err = filepath.WalkDir(source, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == source || p == destination {
			return nil
		}

		rel, err := filepath.Rel(source, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if f.excluded(rel, d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		name := spec.entryName(rel)
		log.Trace().Str("file", p).Str("entry", name).Msg("Zip file")
		if err := addFile(zw, p, name, info); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		zw.Close()
		return 0, fmt.Errorf("%w: %w", ErrArchiveCreation, err)
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	return count, nil
}

func addFile(zw *zip.Writer, src, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}

// describe digests the finished archive.
func describe(spec Spec) (ocispec.Descriptor, error) {
	file, err := os.Open(spec.Destination)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}
	dgst, err := digest.SHA256.FromReader(file)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrArchiveCreation, err)
	}

	desc := ocispec.Descriptor{
		MediaType: MediaType,
		Digest:    dgst,
		Size:      info.Size(),
	}
	if spec.Version != "" {
		desc.Annotations = map[string]string{ocispec.AnnotationVersion: spec.Version}
	}
	return desc, nil
}
