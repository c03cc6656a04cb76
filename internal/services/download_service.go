package services

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"

	"genspecs/internal/models"
)

// documentFilenames maps each document type to its name inside the archive.
var documentFilenames = map[models.DocumentType]string{
	models.DocumentReadme:         "readme.md",
	models.DocumentBOM:            "bom.md",
	models.DocumentRoadmap:        "roadmap.md",
	models.DocumentImplementation: "implementation-plan.md",
}

// DownloadService bundles generated documents into a single zip archive.
type DownloadService struct{}

func NewDownloadService() *DownloadService {
	return &DownloadService{}
}

// ArchiveName returns the download filename for a project.
func (s *DownloadService) ArchiveName(projectName string) string {
	if projectName == "" {
		projectName = "project"
	}
	return fmt.Sprintf("%s_docs.zip", projectName)
}

// BuildArchive packages every accepted or draft document with content into a
// zip archive and returns its bytes. Idle, generating and errored documents
// are left out.
func (s *DownloadService) BuildArchive(state models.GenerationState) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, t := range models.AllDocumentTypes() {
		doc, ok := state.Documents[t]
		if !ok {
			continue
		}
		if doc.Status != models.StatusAccepted && doc.Status != models.StatusDraft {
			continue
		}
		if doc.Content == "" {
			continue
		}

		f, err := w.Create(documentFilenames[t])
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("add %s to archive: %w", documentFilenames[t], err)
		}
		if _, err := f.Write([]byte(doc.Content)); err != nil {
			w.Close()
			return nil, fmt.Errorf("write %s to archive: %w", documentFilenames[t], err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
