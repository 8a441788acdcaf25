// archive.go - Raw report archival in S3-compatible object storage.
//
// Summary rows answer "how covered is this repo"; the archive keeps the full
// per-file gcov report for later inspection without bloating Postgres.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// reportResp is returned after a successful archival.
type reportResp struct {
	ID        string `json:"id"`
	ObjectKey string `json:"object_key"`
	SHA256Hex string `json:"sha256_hex"`
	SizeBytes int64  `json:"size_bytes"`
}

const maxReportBytes = 64 * 1024 * 1024

// maxBytesExceeded reports whether err is the MaxBytesReader limit error,
// which surfaces from PutObject wrapped inside minio's read error.
func maxBytesExceeded(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// archiveReportHandler handles POST /{org}/{repo}/report. The body is
// streamed to object storage under a fresh UUID key while being hashed, then
// a metadata row is recorded.
func (s *Server) archiveReportHandler(w http.ResponseWriter, r *http.Request) {
	if s.mc == nil {
		http.Error(w, "report archive disabled", http.StatusServiceUnavailable)
		return
	}

	org := r.PathValue("org")
	repo := r.PathValue("repo")
	if !validName(org) || !validName(repo) {
		http.Error(w, "bad org or repo name", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	id := uuid.New()
	objectKey := "reports/" + id.String()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	hr := newHashingReader(r.Body)
	_, err := s.mc.PutObject(ctx, s.bucket, objectKey, hr, -1,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=report_putobject org=%s repo=%s err=%v", rid, org, repo, err)
		getMetrics().recordArchiveError()

		if maxBytesExceeded(err) {
			http.Error(w, "report too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "archive failed", http.StatusBadGateway)
		return
	}

	shaHex := hr.sumHex()
	size := hr.bytesRead()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report (id, org, repo, object_key, sha256_hex, size_bytes, content_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, org, repo, objectKey, shaHex, size, contentType,
	)
	if err != nil {
		// The object is already stored; remove it so the archive never holds
		// orphans the report table does not know about.
		_ = s.mc.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})

		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=report_insert org=%s repo=%s err=%v", rid, org, repo, err)
		getMetrics().recordArchiveError()
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	getMetrics().recordArchive(size)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(reportResp{
		ID:        id.String(),
		ObjectKey: objectKey,
		SHA256Hex: shaHex,
		SizeBytes: size,
	})
}

// fetchReportHandler handles GET /report?id={uuid} and streams an archived
// report back to the caller.
func (s *Server) fetchReportHandler(w http.ResponseWriter, r *http.Request) {
	if s.mc == nil {
		http.Error(w, "report archive disabled", http.StatusServiceUnavailable)
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	var objectKey, contentType string
	err = s.db.QueryRowContext(r.Context(),
		`SELECT object_key, COALESCE(content_type, 'application/json') FROM report WHERE id = $1`,
		id,
	).Scan(&objectKey, &contentType)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	obj, err := s.mc.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=report_getobject key=%s err=%v", rid, objectKey, err)
		http.Error(w, "archive read failed", http.StatusBadGateway)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, obj); err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=report_stream key=%s err=%v", rid, objectKey, err)
	}
}
