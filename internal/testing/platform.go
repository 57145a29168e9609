package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/server"
	"github.com/google/uuid"
)

const (
	sessionCookie = "nbx_session"
	apiPrefix     = "/api"
)

// FakeUser is an account known to [FakePlatform].
type FakeUser struct {
	Password string
	Identity models.Identity
}

// FakePlatform is an in-process stand-in for the platform API.
//
// Fields may be changed between requests with the setter methods; all access is serialized.
type FakePlatform struct {
	mu sync.Mutex

	authEnabled  bool
	users        map[string]FakeUser
	sessions     map[string]models.Identity
	meStatus     int
	meGate       chan struct{}
	echoLogin    bool
	logoutStatus int

	artifacts        map[string][]models.Artifact
	artifactFailures int
	notebooks        []models.Notebook
	modules          []models.Module
	generateStatus   int

	calls map[string]int
	srv   *httptest.Server
}

// NewFakePlatform starts a fake platform that is shut down when the test ends.
func NewFakePlatform(t *testing.T) *FakePlatform {
	t.Helper()

	f := &FakePlatform{
		authEnabled: true,
		users:       map[string]FakeUser{},
		sessions:    map[string]models.Identity{},
		echoLogin:   true,
		artifacts:   map[string][]models.Artifact{},
		calls:       map[string]int{},
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(log.New(io.Discard)), f.count)
	api := router.Group(apiPrefix)
	api.HandleFunc(http.MethodGet, "/auth/me", f.handleMe)
	api.HandleFunc(http.MethodGet, "/auth/status", f.handleStatus)
	api.HandleFunc(http.MethodPost, "/auth/login", f.handleLogin)
	api.HandleFunc(http.MethodPost, "/auth/logout", f.handleLogout)
	api.HandleFunc(http.MethodGet, "/notebooks", f.handleNotebooks)
	api.HandleFunc(http.MethodGet, "/modules", f.handleModules)
	api.HandleFunc(http.MethodGet, "/notebooks/{id}/artifacts", f.handleArtifacts)
	api.HandleFunc(http.MethodPost, "/notebooks/{id}/podcasts", f.handleGenerate(models.ArtifactPodcast))
	api.HandleFunc(http.MethodPost, "/notebooks/{id}/quizzes", f.handleGenerate(models.ArtifactQuiz))

	f.srv = httptest.NewServer(router)
	t.Cleanup(func() {
		f.ReleaseMe()
		f.srv.Close()
	})

	return f
}

// URL returns the API base URL of the fake platform, mounted under /api like a real deployment.
func (f *FakePlatform) URL() string { return f.srv.URL + apiPrefix }

// Calls returns how many requests hit "METHOD path", with path relative to [FakePlatform.URL].
func (f *FakePlatform) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// AddUser registers an account that can log in.
func (f *FakePlatform) AddUser(username, password string, identity models.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = FakeUser{Password: password, Identity: identity}
}

// SetAuthEnabled controls the response of GET /auth/status.
func (f *FakePlatform) SetAuthEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authEnabled = enabled
}

// SetMeStatus forces GET /auth/me to answer with status. Zero restores session-based answers.
func (f *FakePlatform) SetMeStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meStatus = status
}

// SetAnySession makes every GET /auth/me succeed with identity, regardless of cookies.
func (f *FakePlatform) SetAnySession(identity models.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions["*"] = identity
}

// HoldMe blocks GET /auth/me until [FakePlatform.ReleaseMe] is called.
func (f *FakePlatform) HoldMe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meGate == nil {
		f.meGate = make(chan struct{})
	}
}

// ReleaseMe unblocks requests held by [FakePlatform.HoldMe].
func (f *FakePlatform) ReleaseMe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meGate != nil {
		close(f.meGate)
		f.meGate = nil
	}
}

// SetLoginEcho controls whether a successful login echoes the identity in its body.
func (f *FakePlatform) SetLoginEcho(echo bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.echoLogin = echo
}

// SetLogoutStatus forces POST /auth/logout to answer with status.
func (f *FakePlatform) SetLogoutStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutStatus = status
}

// SetArtifacts replaces the artifact listing of a notebook.
func (f *FakePlatform) SetArtifacts(notebookID string, artifacts []models.Artifact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[notebookID] = artifacts
}

// FailArtifacts makes the next n artifact listings answer 500.
func (f *FakePlatform) FailArtifacts(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifactFailures = n
}

// SetNotebooks replaces the notebook listing.
func (f *FakePlatform) SetNotebooks(notebooks []models.Notebook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notebooks = notebooks
}

// SetModules replaces the module listing.
func (f *FakePlatform) SetModules(modules []models.Module) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modules = modules
}

// SetGenerateStatus forces generation triggers to answer with status.
func (f *FakePlatform) SetGenerateStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateStatus = status
}

func (f *FakePlatform) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.Method+" "+strings.TrimPrefix(r.URL.Path, apiPrefix)]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakePlatform) handleMe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	gate := f.meGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.meStatus != 0 {
		w.WriteHeader(f.meStatus)
		return
	}

	if identity, ok := f.sessions["*"]; ok {
		writeJSON(w, http.StatusOK, identity)
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		if identity, ok := f.sessions[c.Value]; ok {
			writeJSON(w, http.StatusOK, identity)
			return
		}
	}

	w.WriteHeader(http.StatusUnauthorized)
}

func (f *FakePlatform) handleStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"auth_enabled": f.authEnabled})
}

func (f *FakePlatform) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[body.Username]
	if !ok || user.Password != body.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	session := uuid.NewString()
	f.sessions[session] = user.Identity
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: session, Path: "/"})

	if f.echoLogin {
		writeJSON(w, http.StatusOK, user.Identity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (f *FakePlatform) handleLogout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.logoutStatus != 0 {
		w.WriteHeader(f.logoutStatus)
		return
	}

	if c, err := r.Cookie(sessionCookie); err == nil {
		delete(f.sessions, c.Value)
	}
	delete(f.sessions, "*")
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakePlatform) handleNotebooks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.notebooks))
}

func (f *FakePlatform) handleModules(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(f.modules))
}

func (f *FakePlatform) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.artifactFailures > 0 {
		f.artifactFailures--
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	artifacts, ok := f.artifacts[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(artifacts))
}

// handleGenerate accepts a generation request and lists a pending artifact for it.
//
// Podcasts are listed under the in-progress command id until the test replaces the listing.
func (f *FakePlatform) handleGenerate(kind models.ArtifactType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.generateStatus != 0 {
			w.WriteHeader(f.generateStatus)
			return
		}

		notebookID := r.PathValue("id")
		jobID := uuid.NewString()

		artifact := models.Artifact{ID: jobID, Type: kind, Status: "completed"}
		if kind == models.ArtifactPodcast {
			artifact = models.Artifact{ID: models.InProgressPrefix + jobID, Type: kind, Status: "running"}
		}
		f.artifacts[notebookID] = append(f.artifacts[notebookID], artifact)

		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
