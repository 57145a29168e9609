// package services defines interface Platform for interacting with the notebook platform API
package services

import (
	"context"

	"github.com/desertthunder/nbx/internal/models"
)

// Platform defines the operations the client consumes from the notebook platform.
type Platform interface {
	// Me returns the identity of the current session.
	// Fails with [shared.ErrUnauthenticated] on 401/403 and [shared.ErrTransport] otherwise.
	Me(ctx context.Context) (*models.Identity, error)

	// AuthEnabled reports whether the deployment enforces authentication.
	AuthEnabled(ctx context.Context) (bool, error)

	// Login starts a session. The returned identity is nil when the server does not echo the user.
	Login(ctx context.Context, username, password string) (*models.Identity, error)

	// Logout ends the server-side session.
	Logout(ctx context.Context) error

	// GeneratePodcast requests podcast generation for a notebook and returns the accepted job id.
	GeneratePodcast(ctx context.Context, notebookID string, params PodcastParams) (string, error)

	// GenerateQuiz requests quiz generation for a notebook and returns the accepted job id.
	GenerateQuiz(ctx context.Context, notebookID string, params QuizParams) (string, error)

	// Artifacts lists the generated artifacts of a notebook, in server order.
	Artifacts(ctx context.Context, notebookID string) ([]models.Artifact, error)

	// Notebooks lists notebooks visible to the session (admin landing).
	Notebooks(ctx context.Context) ([]models.Notebook, error)

	// Modules lists learning modules visible to the session (learner landing).
	Modules(ctx context.Context) ([]models.Module, error)
}

// PodcastParams are the generation options for a podcast episode.
type PodcastParams struct {
	EpisodeName    string `json:"episode_name,omitempty"`
	EpisodeProfile string `json:"episode_profile,omitempty"`
	SpeakerProfile string `json:"speaker_profile,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

// QuizParams are the generation options for a quiz.
type QuizParams struct {
	NumQuestions int    `json:"num_questions,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}
