package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/application/command"
	"github.com/fccthegurukul/gurukul-hub/internal/application/query"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/document"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"healthy": true,
			"version": s.config.Version,
			"uptime":  s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req addStudentRequest
	if err := decodeJSON(r, "AddStudent", &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	admission, err := req.toAdmission(time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.AdmitStudent.Handle(r.Context(), command.AdmitStudentCommand{Admission: admission})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req updateStudentRequest
	if err := decodeJSON(r, "UpdateStudent", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.UpdateStudent.Handle(r.Context(), command.UpdateStudentCommand{
		FccID:  pathFccID(r, "fcc_id"),
		Update: req.toUpdate(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Student details updated successfully",
		"student":          res.Student,
		"payments_updated": res.PaymentsUpdated,
	})
}

func (s *Server) handleGetStudents(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Students.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.deps.Students.Profile(r.Context(), pathFccID(r, "fcc_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := s.deps.Students.Skills(r.Context(), pathFccID(r, "fcc_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

func (s *Server) handleGetTuitionFee(w http.ResponseWriter, r *http.Request) {
	fee, err := s.deps.Students.TuitionFee(r.Context(), pathFccID(r, "fcc_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fee)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSignalPresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := decodeJSON(r, "SignalPresence", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.SignalPresence.Handle(r.Context(), command.SignalPresenceCommand{Signal: req.toSignal()})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "Student data updated successfully"
	if res.Outcome == presence.OutcomeInserted {
		message = "Student data inserted successfully"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"outcome": res.Outcome,
		"state":   res.State,
	})
}

func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Presence.History(r.Context(), pathFccID(r, "fcc_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleOnCampus(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureCampusTracker) {
		s.writeError(w, r, shared.NewDomainError("presence", "OnCampus", shared.ErrServiceUnavailable,
			"Campus tracker is disabled"))
		return
	}
	entries, err := s.deps.Presence.OnCampus(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORING LEDGER
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := decodeJSON(r, "CompleteTask", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.CompleteTask.Handle(r.Context(), command.CompleteTaskCommand{Completion: req.toCompletion()})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Task completed and score updated",
		"leaderboard": res.Record,
		"task_log":    res.TaskLog,
	})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.deps.Leaderboard.Board(r.Context(), query.GetBoardQuery{
		FccID:       pathFccID(r, "fccId"),
		ClassFilter: r.URL.Query().Get("leaderboardClassFilter"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleGetClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.deps.Leaderboard.Classes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 10
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, shared.NewDomainError("leaderboard", "Top", shared.ErrInvalidInput,
				"limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := s.deps.Leaderboard.Top(r.Context(), q.Get("class"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, "RecordPayment", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.RecordPayment.Handle(r.Context(), command.RecordPaymentCommand{
		FccID:            shared.FccID(strings.TrimSpace(req.FccID)),
		Amount:           string(req.Amount),
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		StudentName:      req.StudentName,
		MonthlyCycleDays: req.MonthlyCycleDays,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Payment added successfully",
		"receipt": res.ReceiptPath,
		"payment": res.Payment,
		"totals":  res.Totals,
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := timeutil.DayRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeError(w, r, shared.WrapError("payment", "List", shared.ErrInvalidFormat,
			"startDate and endDate must be YYYY-MM-DD", err))
		return
	}
	days, err := payment.ParseCycleDays(q.Get("monthly_cycle_days"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.deps.Payments.List(r.Context(), payment.Filter{
		FccID:         strings.TrimSpace(q.Get("fcc_id")),
		PaymentStatus: q.Get("payment_status"),
		PaymentMethod: q.Get("payment_method"),
		From:          from,
		To:            to,
		CycleDays:     days,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleQuizByTopic(w http.ResponseWriter, r *http.Request) {
	questions, err := s.deps.Quizzes.ByTopic(r.Context(), chi.URLParam(r, "skillTopic"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := decodeJSON(r, "StartQuiz", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.deps.StartQuiz.Handle(r.Context(), command.StartQuizCommand{
		FccID:          shared.FccID(strings.TrimSpace(req.FccID)),
		SkillTopic:     req.SkillTopic,
		TotalQuestions: req.TotalQuestions,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": session.SessionID,
		"startTime": session.StartTime,
	})
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if err := decodeJSON(r, "SubmitQuiz", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.deps.SubmitQuiz.Handle(r.Context(), command.SubmitQuizCommand{
		SessionID: req.SessionID,
		FccID:     shared.FccID(strings.TrimSpace(req.FccID)),
		Answers:   req.answers(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Quiz submitted successfully",
		"score":    res.Session.Score,
		"session":  res.Session,
		"attempts": res.Attempts,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE ARCHIVE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureFileArchive) {
		s.writeError(w, r, shared.NewDomainError("document", "Upload", shared.ErrServiceUnavailable,
			"File archive is disabled"))
		return
	}
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.writeError(w, r, shared.WrapError("document", "Upload", shared.ErrInvalidInput,
			"invalid multipart upload", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, shared.WrapError("document", "Upload", shared.ErrInvalidInput,
			"No file uploaded", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, shared.WrapError("document", "Upload", shared.ErrInvalidInput,
			"failed to read upload", err))
		return
	}

	filetype := header.Header.Get("Content-Type")
	if filetype == "" {
		filetype = http.DetectContentType(data)
	}

	meta, err := s.deps.UploadFile.Handle(r.Context(), command.UploadFileCommand{
		Filename:    header.Filename,
		Filetype:    filetype,
		Description: r.FormValue("description"),
		Data:        data,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := timeutil.DayRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		s.writeError(w, r, shared.WrapError("document", "List", shared.ErrInvalidFormat,
			"startDate and endDate must be YYYY-MM-DD", err))
		return
	}

	files, err := s.deps.Files.List(r.Context(), document.Filter{
		From:   from,
		To:     to,
		Search: strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, shared.NewDomainError("document", "Download", shared.ErrInvalidID,
			"file id must be a positive integer"))
		return
	}

	f, err := s.deps.Files.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := f.Filetype
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSISTANT
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureAssistantChat) || s.deps.AskAssistant == nil {
		s.writeError(w, r, shared.ErrAssistantDisabled)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, "Chat", &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reply, err := s.deps.AskAssistant.Handle(r.Context(), command.AskAssistantCommand{
		Message: req.Message,
		Model:   req.Model,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func pathFccID(r *http.Request, name string) shared.FccID {
	return shared.FccID(strings.TrimSpace(chi.URLParam(r, name)))
}
