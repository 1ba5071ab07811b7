package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// mimeByExtension mirrors the backend's accepted upload types. Checking
// locally turns a doomed multipart round trip into an instant rejection
// with the same wording the server would use.
var mimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// DocumentUseCase drives the upload and analysis lifecycle of case
// documents.
type DocumentUseCase struct {
	api      ports.DocumentAPI
	store    *cache.Store
	coord    *MutationCoordinator
	sessions sessionSource
	maxBytes int64
	log      *slog.Logger
}

func NewDocumentUseCase(
	api ports.DocumentAPI,
	store *cache.Store,
	coord *MutationCoordinator,
	sessions sessionSource,
	maxBytes int64,
	log *slog.Logger,
) *DocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &DocumentUseCase{
		api:      api,
		store:    store,
		coord:    coord,
		sessions: sessions,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (uc *DocumentUseCase) List(ctx context.Context, caseID string) ([]domain.Document, error) {
	value, err := uc.store.Fetch(ctx, documentsKey(caseID), func(ctx context.Context) (any, error) {
		return uc.api.ListDocuments(ctx, caseID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Document), nil
}

func (uc *DocumentUseCase) Get(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	value, err := uc.store.Fetch(ctx, documentKey(caseID, documentID), func(ctx context.Context) (any, error) {
		doc, err := uc.api.GetDocument(ctx, caseID, documentID)
		if err != nil {
			return nil, err
		}
		return *doc, nil
	})
	if err != nil {
		return nil, err
	}
	doc := value.(domain.Document)
	return &doc, nil
}

// Upload preflights type and size locally, then shows a placeholder row
// in the document list while the multipart request runs.
func (uc *DocumentUseCase) Upload(ctx context.Context, caseID, path string) (*domain.Document, error) {
	if _, err := gate(uc.sessions, "upload document", domain.ActionUploadDocument); err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	mimeType, ok := mimeByExtension[filepath.Ext(filename)]
	if !ok {
		return nil, domain.WrapError(domain.ErrValidation, "upload document",
			fmt.Errorf("unsupported file type: %s", filepath.Ext(filename)))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "upload document", err)
	}
	if info.Size() > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrValidation, "upload document",
			fmt.Errorf("file is %d bytes, limit is %d", info.Size(), uc.maxBytes))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "upload document", err)
	}
	defer file.Close()

	placeholder := domain.Document{
		ID:               "pending-" + uuid.NewString(),
		Filename:         filename,
		OriginalFilename: filename,
		MimeType:         mimeType,
		Status:           domain.DocUploaded,
		CreatedAt:        time.Now().UTC(),
	}
	var uploaded domain.Document
	_, err = uc.coord.Mutate(ctx, Mutation{
		Key: documentsKey(caseID),
		Predict: func(prev cache.Entry) (any, bool) {
			if !prev.Present {
				return nil, false
			}
			return appendDocuments(documentList(prev), placeholder), true
		},
		Apply: func(ctx context.Context, prev cache.Entry) (any, error) {
			doc, err := uc.api.UploadDocument(ctx, caseID, filename, mimeType, file)
			if err != nil {
				return nil, err
			}
			uploaded = *doc
			if !prev.Present {
				// A never-fetched list stays absent; the next List
				// call loads it with the upload included.
				return nil, nil
			}
			return appendDocuments(documentList(prev), *doc), nil
		},
	})
	if err != nil {
		return nil, err
	}

	uc.store.Write(documentKey(caseID, uploaded.ID), uploaded)
	return &uploaded, nil
}

// Analyze requests analysis for an uploaded document. The lifecycle is
// strictly forward: analyzing, analyzed, and failed documents are
// rejected locally because the API has no re-analysis endpoint.
func (uc *DocumentUseCase) Analyze(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	if _, err := gate(uc.sessions, "analyze document", domain.ActionAnalyzeDocument); err != nil {
		return nil, err
	}
	if current, err := uc.Get(ctx, caseID, documentID); err == nil {
		if !domain.ValidTransition(current.Status, domain.DocAnalyzing) {
			return nil, domain.WrapError(domain.ErrValidation, "analyze document",
				fmt.Errorf("document is %s and cannot be analyzed", current.Status))
		}
	}

	value, err := uc.coord.Mutate(ctx, Mutation{
		Key: documentKey(caseID, documentID),
		Predict: func(prev cache.Entry) (any, bool) {
			doc, ok := prev.Value.(domain.Document)
			if !prev.Present || !ok {
				return nil, false
			}
			doc.Status = domain.DocAnalyzing
			return doc, true
		},
		Apply: func(ctx context.Context, _ cache.Entry) (any, error) {
			doc, err := uc.api.AnalyzeDocument(ctx, caseID, documentID)
			if err != nil {
				return nil, err
			}
			return *doc, nil
		},
	})
	if err != nil {
		return nil, err
	}
	doc := value.(domain.Document)
	uc.replaceInList(caseID, doc)
	return &doc, nil
}

func (uc *DocumentUseCase) Delete(ctx context.Context, caseID, documentID string) error {
	if _, err := gate(uc.sessions, "delete document", domain.ActionDeleteDocument); err != nil {
		return err
	}
	_, err := uc.coord.Mutate(ctx, Mutation{
		Key: documentsKey(caseID),
		Predict: func(prev cache.Entry) (any, bool) {
			if !prev.Present {
				return nil, false
			}
			return withoutDocument(documentList(prev), documentID), true
		},
		Apply: func(ctx context.Context, prev cache.Entry) (any, error) {
			if err := uc.api.DeleteDocument(ctx, caseID, documentID); err != nil {
				return nil, err
			}
			if !prev.Present {
				return nil, nil
			}
			return withoutDocument(documentList(prev), documentID), nil
		},
	})
	if err != nil {
		return err
	}
	uc.store.Delete(documentKey(caseID, documentID))
	return nil
}

// replaceInList keeps the document list consistent with a refreshed
// single-document entry without forcing a refetch.
func (uc *DocumentUseCase) replaceInList(caseID string, doc domain.Document) {
	entry := uc.store.Get(documentsKey(caseID))
	list, ok := entry.Value.([]domain.Document)
	if !entry.Present || !ok {
		return
	}
	out := make([]domain.Document, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == doc.ID {
			out[i] = doc
		}
	}
	uc.store.Write(documentsKey(caseID), out)
}

func documentList(entry cache.Entry) []domain.Document {
	if list, ok := entry.Value.([]domain.Document); entry.Present && ok {
		return list
	}
	return nil
}

func appendDocuments(list []domain.Document, docs ...domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(list)+len(docs))
	out = append(out, list...)
	return append(out, docs...)
}

func withoutDocument(list []domain.Document, id string) []domain.Document {
	out := make([]domain.Document, 0, len(list))
	for _, d := range list {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}
