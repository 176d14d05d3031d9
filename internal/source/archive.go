package source

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// decompress unwraps raw according to compression. For archives it also
// returns the name of the member being read, always the last regular file.
func decompress(raw io.ReadCloser, compression string) (io.ReadCloser, string, error) {
	switch compression {
	case CompressionNone:
		return raw, "", nil
	case CompressionGzip:
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, "", fmt.Errorf("gzip: %w: %w", neoload.ErrSourceFailed, err)
		}
		return zr, "", nil
	case CompressionZip:
		return lastZipMember(raw)
	case CompressionTgz:
		return lastTarMember(raw)
	default:
		return nil, "", fmt.Errorf("compression %q: %w", compression, neoload.ErrUnsupportedFormat)
	}
}

func lastZipMember(raw io.ReadCloser) (io.ReadCloser, string, error) {
	var (
		ra   io.ReaderAt
		size int64
	)
	if f, ok := raw.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, "", fmt.Errorf("zip: %w: %w", neoload.ErrSourceFailed, err)
		}
		ra, size = f, info.Size()
	} else {
		// Remote archives are buffered; zip needs random access to its directory.
		data, err := io.ReadAll(raw)
		if err != nil {
			return nil, "", fmt.Errorf("zip: %w: %w", neoload.ErrSourceFailed, err)
		}
		ra, size = bytes.NewReader(data), int64(len(data))
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, "", fmt.Errorf("zip: %w: %w", neoload.ErrSourceFailed, err)
	}

	var last *zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			last = f
		}
	}
	if last == nil {
		return nil, "", fmt.Errorf("zip archive has no files: %w", neoload.ErrSourceFailed)
	}

	rc, err := last.Open()
	if err != nil {
		return nil, "", fmt.Errorf("zip member %s: %w: %w", last.Name, neoload.ErrSourceFailed, err)
	}
	return rc, last.Name, nil
}

func lastTarMember(raw io.ReadCloser) (io.ReadCloser, string, error) {
	zr, err := gzip.NewReader(raw)
	if err != nil {
		return nil, "", fmt.Errorf("tgz: %w: %w", neoload.ErrSourceFailed, err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	var (
		name string
		buf  bytes.Buffer
	)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("tgz: %w: %w", neoload.ErrSourceFailed, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		buf.Reset()
		if _, err := io.Copy(&buf, tr); err != nil {
			return nil, "", fmt.Errorf("tgz member %s: %w: %w", hdr.Name, neoload.ErrSourceFailed, err)
		}
		name = hdr.Name
	}
	if name == "" {
		return nil, "", fmt.Errorf("tgz archive has no files: %w", neoload.ErrSourceFailed)
	}
	return io.NopCloser(&buf), name, nil
}
