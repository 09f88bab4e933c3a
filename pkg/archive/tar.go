package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

type tarWriter struct {
	buf        *bufio.Writer
	compressed io.WriteCloser
	tw         *tar.Writer
}

func newTarWriter(w io.Writer, format Format, level Level) (*tarWriter, error) {
	buf := bufio.NewWriter(w)

	var compressed io.WriteCloser
	if format == TarZst {
		zw, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(level.zstdLevel()))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		compressed = zw
	} else {
		gw, err := pgzip.NewWriterLevel(buf, level.flateLevel())
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		compressed = gw
	}
	return &tarWriter{buf: buf, compressed: compressed, tw: tar.NewWriter(compressed)}, nil
}

func (t *tarWriter) write(name, link string, info os.FileInfo) error {
	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", name, err)
	}
	header.Name = name
	if err := t.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	return nil
}

func (t *tarWriter) addDir(name string, info os.FileInfo) error {
	return t.write(name, "", info)
}

func (t *tarWriter) addFile(name string, info os.FileInfo, r io.Reader) error {
	if err := t.write(name, "", info); err != nil {
		return err
	}
	_, err := io.Copy(t.tw, r)
	return err
}

func (t *tarWriter) addSymlink(name, target string, info os.FileInfo) error {
	return t.write(name, target, info)
}

func (t *tarWriter) Close() error {
	if err := t.tw.Close(); err != nil {
		return fmt.Errorf("tar writer close failed: %w", err)
	}
	if err := t.compressed.Close(); err != nil {
		return fmt.Errorf("compressed writer close failed: %w", err)
	}
	if err := t.buf.Flush(); err != nil {
		return fmt.Errorf("buffer flush failed: %w", err)
	}
	return nil
}
