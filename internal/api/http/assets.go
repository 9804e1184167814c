package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-tutor/internal/activity"
	"github.com/mind-engage/mindengage-tutor/internal/explain"
	"github.com/mind-engage/mindengage-tutor/internal/extract"
	"github.com/mind-engage/mindengage-tutor/internal/storage"
)

const maxUploadBytes = 32 << 20

type uploadResp struct {
	extract.Upload
	Level       explain.Level `json:"level,omitempty"`
	Explanation string        `json:"explanation,omitempty"`
}

// POST /uploads  multipart: file, level
func UploadHandler(mgr *extract.Manager, events *activity.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			fail(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		up, err := mgr.Process(r.Context(), hdr.Filename, f)
		if err != nil {
			failErr(w, r, err)
			return
		}
		events.Record(r.Context(), activity.FileUploaded, up.SavedKey, userID, map[string]any{
			"filename": up.OriginalFilename, "type": up.FileType, "ok": up.OK(),
		})
		if !up.OK() {
			writeJSON(w, http.StatusUnprocessableEntity, Result[uploadResp]{
				Success: false, Message: up.Error, Data: uploadResp{Upload: up},
			})
			return
		}
		level := explain.ParseLevel(r.FormValue("level"))
		ok(w, http.StatusCreated, "File processed successfully.", uploadResp{
			Upload:      up,
			Level:       level,
			Explanation: explain.Generate(up.Text, level, up.OriginalFilename),
		})
	}
}

// MountFiles serves stored blobs under GET /files/*. Users may read shared
// uploads and audio but only their own reports.
func MountFiles(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		userID, found := currentUser(w, r)
		if !found {
			return
		}
		key := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
		if owner, isReport := reportOwner(key); isReport && owner != strconv.FormatInt(userID, 10) {
			fail(w, http.StatusNotFound, "not found")
			return
		}
		rc, err := bs.Get(r.Context(), key)
		if err != nil {
			failErr(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}

// reportOwner extracts the user id segment of reports/<user>/<file>.
func reportOwner(key string) (string, bool) {
	rest, found := strings.CutPrefix(key, "reports/")
	if !found {
		return "", false
	}
	owner, _, _ := strings.Cut(rest, "/")
	return owner, true
}
