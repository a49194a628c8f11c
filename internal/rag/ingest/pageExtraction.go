package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var errPageTimeout = errors.New("page extraction timed out")

func extractPDF(path string) ([]commonModels.RawPage, error) {
	log := logger.With("path", path)
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []commonModels.RawPage
	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF: page value is null", "page", i)
			continue
		}

		content, err := protectExtract(page, config.PageExtractWait)
		if err != nil {
			// keep the other pages
			log.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		pages = append(pages, commonModels.RawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractDocx returns the whole document as a single page.
func extractDocx(path string) ([]commonModels.RawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract docx: %w", err)
	}
	return singlePage(text), nil
}

func extractTxt(path string) ([]commonModels.RawPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	return singlePage(string(data)), nil
}

func singlePage(text string) []commonModels.RawPage {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return []commonModels.RawPage{
		{
			Number:  1,
			Content: text,
		},
	}
}

// protectExtract bounds GetPlainText, which can spin on malformed content streams.
func protectExtract(page pdf.Page, wait time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(wait):
		return "", errPageTimeout
	}
}
