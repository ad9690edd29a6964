package ingest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	client   *DriveClient
	ingestor *Ingestor
	folderID string
}

// NewHandler serves the ingestion endpoints. folderID is the default
// upload folder; requests may override it with folderId or path.
func NewHandler(client *DriveClient, ingestor *Ingestor, folderID string) *Handler {
	return &Handler{client: client, ingestor: ingestor, folderID: folderID}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/ingest/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/ingest/file", h.IngestFile).Methods("POST")
	router.HandleFunc("/api/ingest/run", h.IngestFolder).Methods("POST")
}

func (h *Handler) resolveFolder(r *http.Request) (string, error) {
	query := r.URL.Query()

	if path := query.Get("path"); path != "" {
		return h.client.FindFolderByPath(path)
	}
	if folderID := query.Get("folderId"); folderID != "" {
		return folderID, nil
	}
	return h.folderID, nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	files, err := h.client.ListFolder(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	result, err := h.ingestor.IngestFile(r.Context(), fileID)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) IngestFolder(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	report, err := h.ingestor.IngestFolder(r.Context(), folderID)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
