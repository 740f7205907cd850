package server

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"os"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/latex2image/pkg/errors"
	"github.com/matzehuels/latex2image/pkg/latex"
)

// Wire messages that do not come from the pipeline.
const (
	msgBadRequest = "Invalid request."
	msgTooLarge   = "Request too large."
)

// convertResponse is the body of every /convert answer. Exactly one field
// is set.
type convertResponse struct {
	ImageURL string `json:"imageURL,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	raw, err := decodeRequest(r, s.opts.MaxBodyBytes)
	if err != nil {
		msg := msgBadRequest
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			msg = msgTooLarge
		}
		s.logger.Debug("unreadable request", "req", chimiddleware.GetReqID(r.Context()), "err", err)
		writeJSON(w, convertResponse{Error: msg})
		return
	}

	res, err := s.conv.Convert(r.Context(), raw)
	if err != nil {
		writeJSON(w, convertResponse{Error: errors.PublicMessage(err)})
		return
	}
	writeJSON(w, convertResponse{ImageURL: res.Location})
}

// decodeRequest reads the three request fields from a JSON, urlencoded or
// multipart body.
func decodeRequest(r *http.Request, maxBytes int64) (latex.RawRequest, error) {
	var raw latex.RawRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return raw, err
		}
		return raw, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return raw, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return raw, err
		}
	}

	raw.Input = r.PostFormValue("latexInput")
	raw.Format = r.PostFormValue("outputFormat")
	raw.Scale = r.PostFormValue("outputScale")
	return raw, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.opts.Gate != nil {
		body["queue"] = s.opts.Gate.Stats()
	}
	writeJSON(w, body)
}

// outputHandler serves produced images. Directories are hidden.
func (s *Server) outputHandler() http.Handler {
	fs := http.FileServer(filesOnly{http.Dir(s.opts.OutputDir)})
	return http.StripPrefix("/"+s.opts.PublicPrefix, fs)
}

// filesOnly refuses to open directories, which disables listings.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
