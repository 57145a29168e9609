package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	tu "github.com/desertthunder/nbx/internal/testing"
)

func newPlatform(t *testing.T) (*PlatformService, *tu.FakePlatform) {
	t.Helper()
	fake := tu.NewFakePlatform(t)
	return NewPlatformService(NewAPIService(APIOpts{BaseURL: fake.URL()})), fake
}

func TestPlatformService(t *testing.T) {
	ctx := context.Background()
	admin := models.Identity{ID: "u-1", Role: models.RoleAdmin, CompanyID: "c-1", Username: "ada"}

	t.Run("Me", func(t *testing.T) {
		t.Run("Returns Identity", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetAnySession(admin)

			got, err := platform.Me(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if *got != admin {
				t.Errorf("expected %+v, got %+v", admin, *got)
			}
		})

		t.Run("401 Is Unauthenticated", func(t *testing.T) {
			platform, _ := newPlatform(t)

			_, err := platform.Me(ctx)
			if !errors.Is(err, shared.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
			if !IsUnauthenticated(err) {
				t.Error("expected IsUnauthenticated to agree")
			}
		})

		t.Run("500 Is Transport Error", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetMeStatus(http.StatusInternalServerError)

			_, err := platform.Me(ctx)
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Unreachable Server Is Transport Error", func(t *testing.T) {
			platform := NewPlatformService(NewAPIService(APIOpts{
				BaseURL:    "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			}))

			_, err := platform.Me(ctx)
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Malformed Identity Is Transport Error", func(t *testing.T) {
			platform := NewPlatformService(NewAPIService(APIOpts{
				BaseURL: "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Header:     http.Header{},
					Body:       tu.JSONBody(`{"username":"ada"}`),
				}, nil)},
			}))

			_, err := platform.Me(ctx)
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})
	})

	t.Run("AuthEnabled", func(t *testing.T) {
		platform, fake := newPlatform(t)

		enabled, err := platform.AuthEnabled(ctx)
		if err != nil || !enabled {
			t.Errorf("expected enabled without error, got %v, %v", enabled, err)
		}

		fake.SetAuthEnabled(false)
		enabled, err = platform.AuthEnabled(ctx)
		if err != nil || enabled {
			t.Errorf("expected disabled without error, got %v, %v", enabled, err)
		}
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Session Cookie Carries Over", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.AddUser("ada", "pw", admin)

			got, err := platform.Login(ctx, "ada", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got == nil || got.ID != admin.ID {
				t.Fatalf("expected echoed identity, got %+v", got)
			}

			me, err := platform.Me(ctx)
			if err != nil {
				t.Fatalf("expected session to be valid after login, got %v", err)
			}
			if me.Username != "ada" {
				t.Errorf("expected ada, got %s", me.Username)
			}
		})

		t.Run("Without Echo Returns Nil Identity", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.AddUser("ada", "pw", admin)
			fake.SetLoginEcho(false)

			got, err := platform.Login(ctx, "ada", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != nil {
				t.Errorf("expected nil identity, got %+v", got)
			}
		})

		t.Run("Bad Credentials", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.AddUser("ada", "pw", admin)

			_, err := platform.Login(ctx, "ada", "wrong")
			if !errors.Is(err, shared.ErrLoginFailed) {
				t.Errorf("expected ErrLoginFailed, got %v", err)
			}
		})

		t.Run("Missing Fields", func(t *testing.T) {
			platform, _ := newPlatform(t)

			_, err := platform.Login(ctx, "", "")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		platform, fake := newPlatform(t)
		fake.AddUser("ada", "pw", admin)

		if _, err := platform.Login(ctx, "ada", "pw"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if err := platform.Logout(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := platform.Me(ctx); !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("expected session to be gone, got %v", err)
		}

		fake.SetLogoutStatus(http.StatusBadGateway)
		if err := platform.Logout(ctx); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("Generate", func(t *testing.T) {
		t.Run("Podcast Returns Job And Lists Pending Artifact", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetArtifacts("nb-1", nil)

			jobID, err := platform.GeneratePodcast(ctx, "nb-1", PodcastParams{EpisodeName: "ep1"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if jobID == "" {
				t.Fatal("expected job id")
			}

			artifacts, err := platform.Artifacts(ctx, "nb-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(artifacts) != 1 || artifacts[0].ID != models.InProgressPrefix+jobID {
				t.Errorf("expected pending podcast for %s, got %+v", jobID, artifacts)
			}
		})

		t.Run("Rejected Trigger", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetGenerateStatus(http.StatusConflict)

			_, err := platform.GenerateQuiz(ctx, "nb-1", QuizParams{NumQuestions: 3})
			if !errors.Is(err, shared.ErrGenerationFailed) {
				t.Errorf("expected ErrGenerationFailed, got %v", err)
			}
		})

		t.Run("Missing Notebook", func(t *testing.T) {
			platform, _ := newPlatform(t)

			_, err := platform.GenerateQuiz(ctx, "", QuizParams{})
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Command ID Fallback", func(t *testing.T) {
			platform := NewPlatformService(NewAPIService(APIOpts{
				BaseURL: "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusAccepted,
					Header:     http.Header{},
					Body:       tu.JSONBody(`{"command_id":"cmd-7"}`),
				}, nil)},
			}))

			jobID, err := platform.GeneratePodcast(ctx, "nb-1", PodcastParams{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if jobID != "cmd-7" {
				t.Errorf("expected cmd-7, got %s", jobID)
			}
		})
	})

	t.Run("Artifacts", func(t *testing.T) {
		t.Run("Preserves Order And Prefix", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetArtifacts("nb-1", []models.Artifact{
				{ID: "command:abc", Type: models.ArtifactPodcast},
				{ID: "art_123", Type: models.ArtifactQuiz},
			})

			artifacts, err := platform.Artifacts(ctx, "nb-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(artifacts) != 2 || artifacts[0].ID != "command:abc" || artifacts[1].ID != "art_123" {
				t.Errorf("unexpected listing %+v", artifacts)
			}
		})

		t.Run("Unknown Notebook", func(t *testing.T) {
			platform, _ := newPlatform(t)

			_, err := platform.Artifacts(ctx, "missing")
			if !errors.Is(err, shared.ErrNotebookNotFound) {
				t.Errorf("expected ErrNotebookNotFound, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			platform, fake := newPlatform(t)
			fake.SetArtifacts("nb-1", nil)
			fake.FailArtifacts(1)

			_, err := platform.Artifacts(ctx, "nb-1")
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Unavailable Gateway", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()
			platform := NewPlatformService(NewAPIService(APIOpts{BaseURL: srv.URL}))

			_, err := platform.Artifacts(ctx, "nb-1")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport as well, got %v", err)
			}
		})
	})

	t.Run("Landing Lists", func(t *testing.T) {
		platform, fake := newPlatform(t)
		fake.SetNotebooks([]models.Notebook{{ID: "nb-1", Name: "Biology"}})
		fake.SetModules([]models.Module{{ID: "m-1", Name: "Cells", NotebookID: "nb-1"}})

		notebooks, err := platform.Notebooks(ctx)
		if err != nil || len(notebooks) != 1 {
			t.Errorf("expected one notebook, got %v, %v", notebooks, err)
		}

		modules, err := platform.Modules(ctx)
		if err != nil || len(modules) != 1 || modules[0].NotebookID != "nb-1" {
			t.Errorf("expected one module, got %v, %v", modules, err)
		}
	})
}
