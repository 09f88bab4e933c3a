package archive

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

type zipWriter struct {
	buf *bufio.Writer
	zw  *zip.Writer
}

func newZipWriter(w io.Writer, level Level) *zipWriter {
	buf := bufio.NewWriter(w)
	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level.flateLevel())
	})
	return &zipWriter{buf: buf, zw: zw}
}

func (z *zipWriter) header(name string, info os.FileInfo, method uint16) (*zip.FileHeader, error) {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return nil, fmt.Errorf("failed to create zip header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = method
	return header, nil
}

func (z *zipWriter) addDir(name string, info os.FileInfo) error {
	header, err := z.header(name, info, zip.Store)
	if err != nil {
		return err
	}
	_, err = z.zw.CreateHeader(header)
	return err
}

func (z *zipWriter) addFile(name string, info os.FileInfo, r io.Reader) error {
	header, err := z.header(name, info, zip.Deflate)
	if err != nil {
		return err
	}
	w, err := z.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry for %s: %w", name, err)
	}
	_, err = io.Copy(w, r)
	return err
}

func (z *zipWriter) addSymlink(name, target string, info os.FileInfo) error {
	// Symlinks are stored, the entry body is the link target.
	header, err := z.header(name, info, zip.Store)
	if err != nil {
		return err
	}
	w, err := z.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create entry for %s: %w", name, err)
	}
	_, err = w.Write([]byte(target))
	return err
}

func (z *zipWriter) Close() error {
	if err := z.zw.Close(); err != nil {
		return fmt.Errorf("zip writer close failed: %w", err)
	}
	if err := z.buf.Flush(); err != nil {
		return fmt.Errorf("buffer flush failed: %w", err)
	}
	return nil
}
