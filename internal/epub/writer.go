// Package epub serializes a book.Document into an EPUB 3 container with an
// EPUB 2 NCX for older readers.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/noveld/internal/book"
)

const (
	contentDir = "OEBPS"
	imagesDir  = "images"
)

// Writer renders documents to EPUB files. The zero value is ready to use.
type Writer struct {
	// Now stamps dcterms:modified; defaults to time.Now.
	Now func() time.Time
}

func NewWriter() *Writer {
	return &Writer{Now: time.Now}
}

// WriteFile writes doc to path. The archive is assembled next to path and
// renamed into place, so path never holds a half-written book.
func (w *Writer) WriteFile(doc *book.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	part := path + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := w.WriteTo(f, doc); err != nil {
		_ = f.Close()
		_ = os.Remove(part)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to close %s: %w", part, err)
	}

	if err := os.Rename(part, path); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to move %s into place: %w", part, err)
	}

	return nil
}

// WriteTo writes the whole archive to out.
func (w *Writer) WriteTo(out io.Writer, doc *book.Document) error {
	zw := zip.NewWriter(out)

	if err := w.writeEntries(zw, doc); err != nil {
		_ = zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (w *Writer) writeEntries(zw *zip.Writer, doc *book.Document) error {
	// mimetype must be first and stored uncompressed
	if err := writeStored(zw, "mimetype", []byte("application/epub+zip")); err != nil {
		return err
	}

	if err := writeEntry(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
		return err
	}

	p := newPackage(doc, w.now())

	if err := writeEntry(zw, contentDir+"/content.opf", []byte(p.opf())); err != nil {
		return err
	}
	if err := writeEntry(zw, contentDir+"/nav.xhtml", []byte(p.nav())); err != nil {
		return err
	}
	if err := writeEntry(zw, contentDir+"/toc.ncx", []byte(p.ncx())); err != nil {
		return err
	}
	if err := writeEntry(zw, contentDir+"/"+book.StylesheetPath, []byte(book.Stylesheet)); err != nil {
		return err
	}

	if p.cover != nil {
		if err := writeEntry(zw, contentDir+"/"+coverPageFile, []byte(p.coverPage())); err != nil {
			return err
		}
	}

	for _, page := range p.pages {
		if err := writeEntry(zw, contentDir+"/"+page.FileName, []byte(page.Content)); err != nil {
			return fmt.Errorf("failed to write page %s: %w", page.ID, err)
		}
	}

	if p.cover != nil {
		// images are already compressed
		if err := writeStored(zw, contentDir+"/"+p.coverHref(), p.cover.Data); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func writeStored(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	}
	fw, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	_, err = fw.Write(data)
	return err
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	_, err = fw.Write(data)
	return err
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
