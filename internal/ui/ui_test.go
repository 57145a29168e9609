package ui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/auth"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/repositories"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/tasks"
	tu "github.com/desertthunder/nbx/internal/testing"
)

func newTestModel(t *testing.T) (*Model, *tu.FakePlatform) {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := log.New(io.Discard)
	fake := tu.NewFakePlatform(t)
	platform := services.NewPlatformService(services.NewAPIService(services.APIOpts{BaseURL: fake.URL()}))
	nav := auth.NewLocation(models.RouteRoot)
	tracker := tasks.NewJobTracker(logger)

	coord := auth.NewCoordinator(auth.CoordinatorOpts{
		Store:     auth.NewIdentityStore(repositories.NewIdentityRepository(db), logger),
		Client:    platform,
		Navigator: nav,
		Logger:    logger,
		Enforced:  true,
	})
	t.Cleanup(coord.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := NewModel(ctx, Deps{
		Coordinator: coord,
		Navigator:   nav,
		Platform:    platform,
		Poller: tasks.NewPoller(tasks.PollerOpts{
			Client:     platform,
			Tracker:    tracker,
			Policy:     tasks.Policy{Interval: time.Hour, StaleAfter: time.Hour},
			MaxRetries: 1,
			Backoff:    time.Millisecond,
			Logger:     logger,
		}),
		Tracker:   tracker,
		Generator: tasks.NewGenerationService(platform, tracker, logger),
		Logger:    logger,
	})
	return m, fake
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := m.Update(cmd())
	return next
}

func TestModel(t *testing.T) {
	admin := models.Identity{ID: "u-1", Role: models.RoleAdmin, Username: "ada"}

	t.Run("Unauthenticated Start Shows Login", func(t *testing.T) {
		m, _ := newTestModel(t)

		if m.View() == "" || m.view != InitializingView {
			t.Fatal("expected initializing view first")
		}

		run(t, m, m.initialize())

		if m.view != LoginView {
			t.Errorf("expected login view, got %d", m.view)
		}
	})

	t.Run("Authenticated Admin Lands On Notebooks", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.SetAnySession(admin)
		fake.SetNotebooks([]models.Notebook{{ID: "nb-1", Name: "Biology"}})

		fetch := run(t, m, m.initialize())
		if m.view != NotebookListView {
			t.Fatalf("expected notebook list, got %d", m.view)
		}

		run(t, m, fetch)
		if len(m.notebookList.Items()) != 1 {
			t.Errorf("expected one notebook, got %d", len(m.notebookList.Items()))
		}
	})

	t.Run("Login Form Submits Credentials", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.AddUser("ada", "pw", admin)
		run(t, m, m.initialize())

		m.username.SetValue("ada")
		m.password.SetValue("pw")
		m.toggleFocus()

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if !m.loggingIn {
			t.Fatal("expected login in flight")
		}

		run(t, m, cmd)
		if m.view != NotebookListView {
			t.Errorf("expected notebook list after login, got %d (err %v)", m.view, m.err)
		}
	})

	t.Run("Leaving Artifact View Stops Polling", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.SetAnySession(admin)
		fake.SetArtifacts("nb-1", []models.Artifact{{ID: "command:abc", Type: models.ArtifactPodcast}})
		run(t, m, m.initialize())

		wait := m.openArtifacts("nb-1", "Biology")
		if m.view != ArtifactView || m.watchCancel == nil {
			t.Fatal("expected running poll loop")
		}

		for len(m.artifacts) == 0 {
			wait = run(t, m, wait)
		}
		if !m.generating() {
			t.Error("expected pending podcast to show as generating")
		}

		gen := m.watchGen
		m.leaveArtifacts()

		if m.view != NotebookListView {
			t.Errorf("expected landing view, got %d", m.view)
		}
		if m.watchCancel != nil || m.watchGen == gen {
			t.Error("expected poll loop cancelled and invalidated")
		}

		for wait != nil {
			wait = run(t, m, wait)
		}
		if m.view != NotebookListView {
			t.Error("expected late poll messages to be ignored")
		}
	})

	t.Run("Generation Shows Optimistic Spinner", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.SetAnySession(admin)
		fake.SetArtifacts("nb-1", nil)
		run(t, m, m.initialize())

		wait := m.openArtifacts("nb-1", "Biology")
		for m.watching {
			wait = run(t, m, wait)
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
		run(t, m, cmd)

		if m.deps.Tracker.Active() == nil || !m.generating() {
			t.Error("expected tracked job to drive the spinner")
		}
		m.stopWatch()
	})

	t.Run("Dismissing Job Clears Tracker And Spinner", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.SetAnySession(admin)
		fake.SetArtifacts("nb-1", nil)
		run(t, m, m.initialize())

		wait := m.openArtifacts("nb-1", "Biology")
		for m.watching {
			wait = run(t, m, wait)
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
		run(t, m, cmd)
		if m.deps.Tracker.Active() == nil {
			t.Fatal("expected podcast job to be tracked")
		}
		m.stalled = true

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

		if m.deps.Tracker.Active() != nil {
			t.Error("expected dismissed job to be cleared")
		}
		if m.generating() || m.stalled {
			t.Error("expected spinner and stalled warning to be dropped")
		}
		if !strings.Contains(m.notice, "Dismissed podcast job") {
			t.Errorf("expected dismissal notice, got %q", m.notice)
		}
		m.stopWatch()
	})

	t.Run("Dismiss Ignores Jobs Of Other Notebooks", func(t *testing.T) {
		m, fake := newTestModel(t)
		fake.SetAnySession(admin)
		fake.SetArtifacts("nb-1", nil)
		run(t, m, m.initialize())

		m.deps.Tracker.Set(models.ActiveJob{JobID: "j-9", NotebookID: "nb-2", ArtifactType: models.ArtifactPodcast})
		wait := m.openArtifacts("nb-1", "Biology")
		for m.watching {
			wait = run(t, m, wait)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

		if job := m.deps.Tracker.Active(); job == nil || job.JobID != "j-9" {
			t.Errorf("expected other notebook's job to survive, got %+v", job)
		}
		m.stopWatch()
	})
}

func TestStyles(t *testing.T) {
	t.Run("artifact items carry their status label", func(t *testing.T) {
		items := artifactItems([]models.Artifact{
			{ID: models.InProgressPrefix + "j1", Type: models.ArtifactPodcast},
			{ID: "q1", Type: models.ArtifactQuiz, Title: "Week 1", Status: "completed"},
		})

		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if got := items[0].(artifactItem).Title(); got != models.InProgressPrefix+"j1" {
			t.Errorf("expected id as title for untitled artifact, got %q", got)
		}
		if got := items[1].(artifactItem).Title(); got != "Week 1" {
			t.Errorf("expected title Week 1, got %q", got)
		}
	})

	t.Run("role badge names the role", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleAdmin, models.RoleLearner} {
			if got := roleBadge(role); !strings.Contains(got, string(role)) {
				t.Errorf("expected badge to contain %q, got %q", role, got)
			}
		}
	})
}
