package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/kjannette/mindful-trader/internal/csvimport"
	"github.com/kjannette/mindful-trader/internal/logging"
	"github.com/kjannette/mindful-trader/internal/metrics"
	"github.com/kjannette/mindful-trader/internal/models"
)

const maxUploadMemory = 1 << 20

// writeUploadError answers 413 for bodies over the size cap, 400 otherwise.
func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// csvUpload extracts the CSV body and optional column mapping. Multipart
// uploads carry them in the "file" and "mapping" fields; a raw text/csv body
// takes the mapping from the ?mapping= query value.
func csvUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, csvimport.Mapping, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	// Caps the whole upload, including multipart parts spilled to disk.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var rawMapping string
	var body io.ReadCloser
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, nil, fmt.Errorf("invalid multipart upload: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, fmt.Errorf("missing CSV file field: %w", err)
		}
		body = f
		rawMapping = r.FormValue("mapping")
	case "text/csv", "text/plain", "":
		body = r.Body
		rawMapping = r.URL.Query().Get("mapping")
	default:
		return nil, nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	var mapping csvimport.Mapping
	if rawMapping != "" {
		if err := json.Unmarshal([]byte(rawMapping), &mapping); err != nil {
			body.Close()
			return nil, nil, fmt.Errorf("invalid mapping: %w", err)
		}
	}
	return body, mapping, nil
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	body, mapping, err := csvUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer body.Close()

	preview, err := csvimport.BuildPreview(body, mapping, s.opts.Location)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	metrics.RecordImportRows("preview", preview.ValidCount, preview.InvalidCount)
	writeData(w, http.StatusOK, preview)
}

type importRequest struct {
	Trades []models.TradeInput `json:"trades"`
}

type importResponse struct {
	Success  bool                   `json:"success"`
	Error    string                 `json:"error,omitempty"`
	Imported int                    `json:"imported"`
	Failed   int                    `json:"failed"`
	Results  csvimport.ImportResult `json:"results"`
}

// handleImportConfirm stores the previewed trades; each row succeeds or fails on its own.
func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Trades) == 0 {
		writeError(w, http.StatusBadRequest, "no trades to import")
		return
	}

	ctx := r.Context()
	res, err := csvimport.Import(ctx, s.stores.Trades, userIDFrom(ctx), req.Trades)
	metrics.RecordImportRows("import", res.Imported, res.Failed)
	if err != nil {
		log := logging.FromContext(ctx)
		log.Warn().Err(err).Int("imported", res.Imported).Int("failed", res.Failed).Msg("csv import interrupted")
		// Rows already stored are listed so a retry can skip them.
		writeJSON(w, http.StatusServiceUnavailable, importResponse{
			Error: "import interrupted", Imported: res.Imported, Failed: res.Failed, Results: res,
		})
		return
	}

	log := logging.FromContext(ctx)
	log.Info().Int("imported", res.Imported).Int("failed", res.Failed).Msg("csv import finished")
	writeJSON(w, http.StatusOK, importResponse{Success: true, Imported: res.Imported, Failed: res.Failed, Results: res})
}
