package memory

import (
	"context"
	"sort"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type documentStore Tx

func (s *documentStore) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.UploadedBy != nil {
		if _, ok := s.data.users[*d.UploadedBy]; !ok {
			return fkViolation("documents_uploaded_by_fkey", *d.UploadedBy)
		}
	}
	if d.PolicyID != nil {
		if _, ok := s.data.policies[*d.PolicyID]; !ok {
			return fkViolation("documents_policy_id_fkey", *d.PolicyID)
		}
	}
	if d.ProcedureID != nil {
		if _, ok := s.data.procedures[*d.ProcedureID]; !ok {
			return fkViolation("documents_procedure_id_fkey", *d.ProcedureID)
		}
	}
	d.ID = s.data.seq("documents")
	if d.UploadedAt.IsZero() {
		d.UploadedAt = s.now()
	}
	cp := *d
	s.data.documents[d.ID] = &cp
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	d, ok := s.data.documents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *documentStore) listWhere(match func(*models.Document) bool) []*models.Document {
	var out []*models.Document
	for _, d := range s.data.documents {
		if match(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *documentStore) ListDocumentsByPolicy(ctx context.Context, policyID int64) ([]*models.Document, error) {
	return s.listWhere(func(d *models.Document) bool {
		return d.PolicyID != nil && *d.PolicyID == policyID
	}), nil
}

func (s *documentStore) ListDocumentsByProcedure(ctx context.Context, procedureID int64) ([]*models.Document, error) {
	return s.listWhere(func(d *models.Document) bool {
		return d.ProcedureID != nil && *d.ProcedureID == procedureID
	}), nil
}

func (s *documentStore) ListDocumentsByUser(ctx context.Context, userID int64) ([]*models.Document, error) {
	return s.listWhere(func(d *models.Document) bool {
		return d.UploadedBy != nil && *d.UploadedBy == userID
	}), nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	if _, ok := s.data.documents[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data.documents, id)
	return nil
}
