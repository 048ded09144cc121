package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

// maxUploadSize bounds a document upload request body.
const maxUploadSize = 50 << 20

// uploadDocument accepts a multipart form with a "file" part and optional
// policy_id/procedure_id fields. The file is stored under the media directory
// with a generated name; the original name survives only as metadata.
func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return httperr.Validation(map[string]string{"file": "a file part is required"}, "")
	}
	defer file.Close()

	policyID, err := optionalFormID(r, "policy_id")
	if err != nil {
		return err
	}
	procedureID, err := optionalFormID(r, "procedure_id")
	if err != nil {
		return err
	}

	stored := uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(s.settings.MediaDir, stored)

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to write media file: %w", err)
	}

	uploader := identity(r).UserID
	doc := &models.Document{
		Filename:         stored,
		OriginalFilename: header.Filename,
		FilePath:         path,
		FileSize:         size,
		MimeType:         header.Header.Get("Content-Type"),
		UploadedBy:       &uploader,
		PolicyID:         policyID,
		ProcedureID:      procedureID,
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Documents().CreateDocument(r.Context(), doc)
	})
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return writeJSON(w, http.StatusCreated, doc)
}

func optionalFormID(r *http.Request, field string) (*int64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, httperr.Validation(map[string]string{field: "must be a positive integer"}, raw)
	}
	return &id, nil
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var doc *models.Document
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		doc, err = tx.Documents().GetDocument(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, doc)
}

// downloadDocument streams the stored file. A row whose file vanished from
// disk reports the missing file, not the row.
func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var doc *models.Document
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		doc, err = tx.Documents().GetDocument(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}

	f, err := os.Open(doc.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	if doc.MimeType != "" {
		w.Header().Set("Content-Type", doc.MimeType)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	_, err = io.Copy(w, f)
	return err
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var path string
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		doc, err := tx.Documents().GetDocument(r.Context(), id)
		if err != nil {
			return err
		}
		path = doc.FilePath
		return tx.Documents().DeleteDocument(r.Context(), id)
	})
	if err != nil {
		return err
	}

	// The row is gone either way; a stale file is not worth failing over.
	_ = os.Remove(path)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listPolicyDocuments(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Document
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Documents().ListDocumentsByPolicy(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) listProcedureDocuments(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Document
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Documents().ListDocumentsByProcedure(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}
