package services

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"pdfrag/models"
)

func init() {
	// The license key must be set before config.Load runs, so the .env
	// file is loaded here as well.
	_ = godotenv.Load()
	key := os.Getenv("UNIDOC_LICENSE_KEY")
	if key == "" {
		return
	}
	if err := license.SetMeteredKey(key); err != nil {
		log.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.", err)
	}
}

// ExtractPages reads a PDF file and returns one Page per physical page, in
// document order, with 1-based page numbers. A page whose text cannot be
// extracted yields an empty Text rather than failing the whole document; an
// unparseable file fails with ErrExtraction.
func ExtractPages(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	pages := make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtraction, i, err)
		}

		text := ""
		ex, err := extractor.New(page)
		if err == nil {
			text, err = ex.ExtractText()
		}
		if err != nil {
			log.Printf("WARN: could not extract text from page %d: %v", i, err)
			text = ""
		}

		pages = append(pages, models.Page{PageNumber: i, Text: text})
	}

	return pages, nil
}
