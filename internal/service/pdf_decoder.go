package service

import (
	"github.com/gen2brain/go-fitz"

	"pdf-ingest-server/internal/domain"
)

// fitzDocument adapts a go-fitz document to domain.DecodedDocument.
type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageText(page int) (string, error) {
	return d.doc.Text(page)
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

// openPDF decodes the buffer as a PDF and returns an owned handle.
func openPDF(content []byte) (domain.DecodedDocument, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}
