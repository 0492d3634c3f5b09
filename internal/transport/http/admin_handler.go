package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"netexam/internal/app"
	"netexam/internal/domain"
)

// AdminHandler is the operator query surface over the coordinator.
type AdminHandler struct {
	coordinator *app.Coordinator
}

func NewAdminHandler(coordinator *app.Coordinator) *AdminHandler {
	return &AdminHandler{coordinator: coordinator}
}

type statusResponse struct {
	Status          string       `json:"status"`
	Phase           domain.Phase `json:"phase"`
	ExamStarted     bool         `json:"examStarted"`
	Connected       int          `json:"connectedStudents"`
	StartedAt       *time.Time   `json:"startedAt,omitempty"`
	DurationSeconds int          `json:"durationSeconds"`
	TotalRegistered int          `json:"totalRegistered"`
	Admitted        int          `json:"admitted"`
	Waiting         int          `json:"waiting"`
	Timestamp       int64        `json:"timestamp"`
}

type startResponse struct {
	Status  string `json:"status"`
	Started bool   `json:"started"`
	Message string `json:"message"`
}

type studentsResponse struct {
	Status    string `json:"status"`
	Total     int    `json:"totalStudents"`
	Connected int    `json:"connectedStudents"`
}

type loggedResponse struct {
	Status string   `json:"status"`
	Users  []string `json:"users"`
	Count  int      `json:"count"`
}

type resultsResponse struct {
	Status string `json:"status"`
	domain.ScoresReport
}

type questionsResponse struct {
	Status    string            `json:"status"`
	Questions []domain.Question `json:"questions"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Routes builds the admin router.
func (h *AdminHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Route("/api", func(api chi.Router) {
		api.Get("/status", h.status)
		api.Post("/exam/start", h.start)
		api.Get("/students", h.students)
		api.Get("/logged", h.logged)
		api.Get("/results", h.results)
		api.Get("/questions", h.listQuestions)
		api.Post("/questions", h.addQuestion)
	})
	return r
}

func (h *AdminHandler) status(w http.ResponseWriter, r *http.Request) {
	st := h.coordinator.Status(r.Context())
	resp := statusResponse{
		Status:          "success",
		Phase:           st.Phase,
		ExamStarted:     st.Phase == domain.PhaseRunning,
		Connected:       st.Connected,
		DurationSeconds: st.DurationSeconds,
		TotalRegistered: st.TotalRegistered,
		Admitted:        st.Admitted,
		Waiting:         st.Waiting,
		Timestamp:       time.Now().UnixMilli(),
	}
	if !st.StartedAt.IsZero() {
		startedAt := st.StartedAt
		resp.StartedAt = &startedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// start is idempotent: a repeat call succeeds with started=false.
func (h *AdminHandler) start(w http.ResponseWriter, r *http.Request) {
	if h.coordinator.TriggerStart(r.Context()) {
		writeJSON(w, http.StatusOK, startResponse{Status: "success", Started: true, Message: "Exam started successfully"})
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Status: "success", Started: false, Message: "Exam already started"})
}

func (h *AdminHandler) students(w http.ResponseWriter, r *http.Request) {
	st := h.coordinator.Status(r.Context())
	writeJSON(w, http.StatusOK, studentsResponse{Status: "success", Total: st.TotalRegistered, Connected: st.Connected})
}

func (h *AdminHandler) logged(w http.ResponseWriter, r *http.Request) {
	users := h.coordinator.ActiveParticipants()
	writeJSON(w, http.StatusOK, loggedResponse{Status: "success", Users: users, Count: len(users)})
}

func (h *AdminHandler) results(w http.ResponseWriter, r *http.Request) {
	report, err := h.coordinator.ScoresReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Status: "success", ScoresReport: report})
}

func (h *AdminHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, questionsResponse{Status: "success", Questions: h.coordinator.Questions()})
}

func (h *AdminHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid question payload"))
		return
	}
	added, err := h.coordinator.AddQuestion(q)
	switch {
	case errors.Is(err, domain.ErrExamStarted):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidQuestion):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusCreated, questionsResponse{Status: "success", Questions: []domain.Question{added}})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Status: "error", Message: err.Error()})
}
