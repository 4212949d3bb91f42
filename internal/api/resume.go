package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenroomhq/greenroom/internal/ats"
	"github.com/greenroomhq/greenroom/internal/events"
	"github.com/greenroomhq/greenroom/internal/resume"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
)

// maxResumeBytes caps one uploaded document. Real resumes run well under
// a megabyte; anything bigger is not a resume.
const maxResumeBytes = 10 << 20

type resumeResponse struct {
	ObjectKey string         `json:"objectKey"`
	Filename  string         `json:"filename"`
	SizeBytes int64          `json:"sizeBytes"`
	ATS       ats.Result     `json:"ats"`
	Session   *session.State `json:"session"`
}

// uploadResume stores the document, extracts its text, and scores it
// against the optional job_description form field. The upload is refused
// before anything is written if the text cannot be extracted.
func (a *API) uploadResume(w http.ResponseWriter, r *http.Request, id string) {
	if a.objects == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}
	st, ok := a.liveState(r.Context(), id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if st.IsTerminal() {
		respondError(w, http.StatusConflict, "session already finished")
		return
	}

	if err := r.ParseMultipartForm(maxResumeBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		respondError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	defer file.Close()
	if header.Size > maxResumeBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "resume too large")
		return
	}

	kind, err := resume.DetectKind(header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	text, err := resume.Extract(kind, data)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "could not extract text from document")
		return
	}

	key := resume.ObjectKey(id, header.Filename)
	if err := a.objects.Put(r.Context(), key, kind, data); err != nil {
		a.log.Errorw("resume upload failed", "session", id, "key", key, "error", err)
		respondError(w, http.StatusBadGateway, "object storage unavailable")
		return
	}

	jobDescription := r.FormValue("job_description")
	score := ats.Score(text, jobDescription)
	now := time.Now().UTC()

	if a.db != nil {
		row := &storage.ResumeRow{
			SessionID:   id,
			ObjectKey:   key,
			Filename:    header.Filename,
			ContentType: kind,
			SizeBytes:   header.Size,
			Text:        text,
			UploadedAt:  now,
		}
		if err := a.db.Resumes.Save(r.Context(), row); err != nil {
			a.log.Warnw("resume row save failed", "session", id, "error", err)
		}
	}

	st.ResumeKey = key
	st.ATSScore = score.Score
	if st.Stage < session.StageResume {
		st.Stage = session.StageResume
	}
	st.LastActivityAt = now
	st.UpdateReadiness()
	a.commit(r.Context(), st, session.EventUpdate)

	a.log.Infow("resume scored",
		"session", id,
		"file", header.Filename,
		"ats_score", score.Score)
	respondJSON(w, http.StatusOK, resumeResponse{
		ObjectKey: key,
		Filename:  header.Filename,
		SizeBytes: header.Size,
		ATS:       score,
		Session:   st,
	})
}

type analyzeRequest struct {
	JobDescription string `json:"job_description"`
}

type analyzeResponse struct {
	SessionID string `json:"sessionId"`
	Seq       uint64 `json:"seq"`
	Status    string `json:"status"`
}

// enqueueAnalyze hands the stored resume to the analysis worker over the
// broker. The deep LLM match runs asynchronously; its result lands in the
// analyses table and on the session.updated routing key.
func (a *API) enqueueAnalyze(w http.ResponseWriter, r *http.Request, id string) {
	if a.publisher == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis queue not configured")
		return
	}
	if a.db == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis requires a database")
		return
	}
	if _, ok := a.liveState(r.Context(), id); !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	row, err := a.db.Resumes.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusConflict, "no resume uploaded for this session")
		return
	}
	if err != nil {
		a.log.Errorw("resume lookup failed", "session", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load resume")
		return
	}

	job := events.AnalyzeResumeJob{
		SessionID:      id,
		ResumeKeys:     []string{row.ObjectKey},
		JobDescription: strings.TrimSpace(req.JobDescription),
	}
	stamped, err := a.publisher.EnqueueAnalyze(r.Context(), job)
	if err != nil {
		a.log.Errorw("analysis enqueue failed", "session", id, "error", err)
		respondError(w, http.StatusBadGateway, "failed to enqueue analysis")
		return
	}
	if err := a.publisher.PublishUpdate(r.Context(), id, "queued", "resume analysis queued"); err != nil {
		a.log.Warnw("status publish failed", "session", id, "error", err)
	}

	a.log.Infow("analysis queued", "session", id, "seq", stamped.Seq)
	respondJSON(w, http.StatusAccepted, analyzeResponse{
		SessionID: id,
		Seq:       stamped.Seq,
		Status:    "queued",
	})
}
