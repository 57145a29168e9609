package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/auth"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InitializingView ViewState = iota
	LoginView
	NotebookListView
	ModuleListView
	ArtifactView
)

// Deps are the collaborators the TUI drives. They are shared with the CLI commands.
type Deps struct {
	Coordinator *auth.Coordinator
	Navigator   auth.Navigator
	Platform    services.Platform
	Poller      *tasks.Poller
	Tracker     *tasks.JobTracker
	Generator   *tasks.GenerationService
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	view   ViewState
	width  int
	height int

	spinner   spinner.Model
	username  textinput.Model
	password  textinput.Model
	loggingIn bool

	notebookList list.Model
	moduleList   list.Model
	artifactList list.Model
	landing      ViewState

	notebookID string
	title      string
	artifacts  []models.Artifact
	progress   tasks.ProgressUpdate
	decision   tasks.Decision
	watching   bool
	stalled    bool

	watchGen    int
	watchCancel context.CancelFunc

	notice string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "Username: "
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &Model{
		ctx:          ctx,
		deps:         deps,
		view:         InitializingView,
		spinner:      s,
		username:     username,
		password:     password,
		notebookList: newList("Notebooks"),
		moduleList:   newList("Modules"),
		artifactList: newList("Artifacts"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init starts session initialization. Nothing else renders until it settles.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initialize())
}

// View returns the current view.
func (m *Model) View() string {
	switch m.view {
	case InitializingView:
		return m.renderInitializing()
	case LoginView:
		return m.renderLogin()
	case NotebookListView:
		return m.renderList(m.notebookList, m.keys.enter, m.keys.logout, m.keys.quit)
	case ModuleListView:
		return m.renderList(m.moduleList, m.keys.enter, m.keys.logout, m.keys.quit)
	case ArtifactView:
		return m.renderArtifacts()
	default:
		return ""
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.notebookList, &m.moduleList, &m.artifactList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case NotebookListView, ModuleListView:
			return m.handleLandingKeys(msg)
		case ArtifactView:
			return m.handleArtifactKeys(msg)
		}
		if key.Matches(msg, m.keys.quit) {
			return m.quit()
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgInitialized, MsgLoggedOut:
		return m, m.syncRoute()

	case MsgLoggedIn:
		data := msg.data.(loginData)
		m.loggingIn = false
		m.password.Reset()
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Signed in as %s", data.identity.Username)
		return m, m.syncRoute()

	case MsgNotebooksFetched:
		data := msg.data.(notebooksData)
		m.err = data.err
		m.notebookList.SetItems(notebookItems(data.notebooks))
		return m, m.checkSession(data.err)

	case MsgModulesFetched:
		data := msg.data.(modulesData)
		m.err = data.err
		m.moduleList.SetItems(moduleItems(data.modules))
		return m, m.checkSession(data.err)

	case MsgProgressUpdate:
		data := msg.data.(progressData)
		if data.handle.gen != m.watchGen {
			return m, nil
		}
		m.applyProgress(data.update)
		return m, waitForProgress(data.handle)

	case MsgWatchDone:
		data := msg.data.(watchDoneData)
		if data.gen != m.watchGen {
			return m, nil
		}
		return m, m.finishWatch(data.watchResult)

	case MsgRefreshTick:
		if msg.data.(int) != m.watchGen || m.view != ArtifactView {
			return m, nil
		}
		return m, m.startWatch()

	case MsgJobAccepted:
		data := msg.data.(jobData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Generating %s (job %s)", data.job.ArtifactType, data.job.JobID)
		if m.view == ArtifactView && data.job.NotebookID == m.notebookID {
			return m, m.startWatch()
		}
		return m, nil
	}

	return m, nil
}

// syncRoute picks the view for the current location.
func (m *Model) syncRoute() tea.Cmd {
	snap := m.deps.Coordinator.Snapshot()
	path := m.deps.Navigator.Path()

	switch {
	case models.IsPublicRoute(path):
		m.stopWatch()
		m.view = LoginView
		m.username.Focus()
		m.password.Blur()
		return textinput.Blink
	case path == models.RouteNotebooks:
		m.view, m.landing = NotebookListView, NotebookListView
		return m.fetchNotebooks()
	case path == models.RouteModules:
		m.view, m.landing = ModuleListView, ModuleListView
		return m.fetchModules()
	case snap.IsAuthenticated:
		m.deps.Navigator.Navigate(models.LandingPath(snap.User.Role))
	case snap.Allowed():
		m.deps.Navigator.Navigate(models.RouteNotebooks)
	default:
		m.deps.Navigator.Navigate(models.RouteLogin)
	}
	return m.syncRoute()
}

// checkSession sends the user back to login when the platform rejected the session.
func (m *Model) checkSession(err error) tea.Cmd {
	if !errors.Is(err, shared.ErrUnauthenticated) {
		return nil
	}
	return m.logout()
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.back):
		return m.quit()
	case key.Matches(msg, m.keys.next):
		m.toggleFocus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.enter):
		if m.username.Focused() {
			m.toggleFocus()
			return m, textinput.Blink
		}
		m.loggingIn = true
		m.err = nil
		return m, m.login(m.username.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.username.Focused() {
		m.username.Blur()
		m.password.Focus()
		return
	}
	m.password.Blur()
	m.username.Focus()
}

func (m *Model) handleLandingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := &m.notebookList
	if m.view == ModuleListView {
		active = &m.moduleList
	}

	if active.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m.quit()
		case key.Matches(msg, m.keys.logout):
			return m, m.logout()
		case key.Matches(msg, m.keys.enter):
			switch item := active.SelectedItem().(type) {
			case notebookItem:
				return m, m.openArtifacts(item.notebook.ID, item.notebook.Name)
			case moduleItem:
				return m, m.openArtifacts(item.module.NotebookID, item.module.Name)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	*active, cmd = active.Update(msg)
	return m, cmd
}

func (m *Model) handleArtifactKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.leaveArtifacts()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.startWatch()
	case key.Matches(msg, m.keys.podcast):
		return m, m.generate(models.ArtifactPodcast)
	case key.Matches(msg, m.keys.quiz):
		return m, m.generate(models.ArtifactQuiz)
	case key.Matches(msg, m.keys.dismiss):
		m.dismissJob()
		return m, nil
	}

	var cmd tea.Cmd
	m.artifactList, cmd = m.artifactList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case NotebookListView:
		m.notebookList, cmd = m.notebookList.Update(msg)
	case ModuleListView:
		m.moduleList, cmd = m.moduleList.Update(msg)
	case ArtifactView:
		m.artifactList, cmd = m.artifactList.Update(msg)
	case LoginView:
		if m.username.Focused() {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.stopWatch()
	return m, tea.Quit
}

// openArtifacts enters the artifact view of a notebook and starts polling it.
func (m *Model) openArtifacts(notebookID, title string) tea.Cmd {
	m.view = ArtifactView
	m.notebookID = notebookID
	m.title = title
	m.artifacts = nil
	m.artifactList.SetItems(nil)
	m.artifactList.Title = fmt.Sprintf("Artifacts in '%s'", title)
	m.notice = ""
	m.err = nil
	return m.startWatch()
}

// leaveArtifacts stops polling and returns to the landing list.
func (m *Model) leaveArtifacts() {
	m.stopWatch()
	m.view = m.landing
	m.notebookID = ""
	m.stalled = false
}

// startWatch replaces the running poll loop of the artifact view with a fresh one.
func (m *Model) startWatch() tea.Cmd {
	m.stopWatch()
	m.watchGen++

	ctx, cancel := context.WithCancel(m.ctx)
	m.watchCancel = cancel
	m.watching = true
	m.stalled = false

	updates := make(chan tasks.ProgressUpdate, 50)
	done := make(chan watchResult, 1)
	poller := m.deps.Poller
	notebookID := m.notebookID

	go func() {
		artifacts, err := poller.Watch(ctx, notebookID, updates)
		done <- watchResult{artifacts: artifacts, err: err}
		close(updates)
	}()

	return waitForProgress(watchHandle{gen: m.watchGen, updates: updates, done: done})
}

// stopWatch cancels the running poll loop and invalidates its pending messages.
func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchGen++
	m.watching = false
}

func waitForProgress(h watchHandle) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-h.updates
		if !ok {
			return watchDoneMsg(h.gen, <-h.done)
		}
		return progressUpdateMsg(h, update)
	}
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update
	snap, ok := update.Data.(tasks.Snapshot)
	if !ok {
		return
	}
	if update.Phase == tasks.PollStalled {
		m.stalled = true
		return
	}
	m.artifacts = snap.Artifacts
	m.decision = snap.Decision
	m.artifactList.SetItems(artifactItems(snap.Artifacts))
}

// finishWatch schedules the next passive refresh once the loop has settled.
func (m *Model) finishWatch(result watchResult) tea.Cmd {
	m.watching = false
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}

	switch {
	case errors.Is(result.err, context.Canceled):
		return nil
	case errors.Is(result.err, shared.ErrPollExhausted):
		m.stalled = true
		return nil
	case result.err != nil:
		m.err = result.err
		return m.checkSession(result.err)
	}

	delay := m.decision.Delay
	if delay <= 0 {
		delay = m.deps.Poller.Policy().StaleAfter
	}
	gen := m.watchGen
	return tea.Tick(delay, func(time.Time) tea.Msg { return refreshTickMsg(gen) })
}

func (m *Model) initialize() tea.Cmd {
	return func() tea.Msg {
		m.deps.Coordinator.Initialize(m.ctx)
		return initializedMsg()
	}
}

func (m *Model) login(username, password string) tea.Cmd {
	ctx := m.ctx
	coord := m.deps.Coordinator
	return func() tea.Msg {
		identity, err := coord.Login(ctx, username, password)
		return loggedInMsg(identity, err)
	}
}

func (m *Model) logout() tea.Cmd {
	m.stopWatch()
	ctx := m.ctx
	coord := m.deps.Coordinator
	return func() tea.Msg {
		coord.Logout(ctx)
		return loggedOutMsg()
	}
}

func (m *Model) fetchNotebooks() tea.Cmd {
	ctx := m.ctx
	platform := m.deps.Platform
	return func() tea.Msg {
		notebooks, err := platform.Notebooks(ctx)
		return notebooksFetchedMsg(notebooks, err)
	}
}

func (m *Model) fetchModules() tea.Cmd {
	ctx := m.ctx
	platform := m.deps.Platform
	return func() tea.Msg {
		modules, err := platform.Modules(ctx)
		return modulesFetchedMsg(modules, err)
	}
}

func (m *Model) generate(kind models.ArtifactType) tea.Cmd {
	ctx := m.ctx
	gen := m.deps.Generator
	notebookID := m.notebookID
	m.notice = fmt.Sprintf("Requesting %s...", kind)

	return func() tea.Msg {
		var (
			job *models.ActiveJob
			err error
		)
		if kind == models.ArtifactPodcast {
			job, err = gen.Podcast(ctx, notebookID, services.PodcastParams{}, nil)
		} else {
			job, err = gen.Quiz(ctx, notebookID, services.QuizParams{}, nil)
		}
		return jobAcceptedMsg(job, err)
	}
}

// dismissJob forgets the tracked job of this notebook. Polling continues, so a pending artifact the server
// still lists keeps its spinner.
func (m *Model) dismissJob() {
	job := m.deps.Tracker.Active()
	if job == nil || job.NotebookID != m.notebookID {
		return
	}
	m.deps.Tracker.Clear()
	m.stalled = false
	m.notice = fmt.Sprintf("Dismissed %s job %s", job.ArtifactType, job.JobID)
}

// generating reports whether the artifact view should show a spinner.
//
// The tracked job covers the gap before the first listing that shows the pending artifact.
func (m *Model) generating() bool {
	if models.AnyInProgress(m.artifacts) {
		return true
	}
	job := m.deps.Tracker.Active()
	return job != nil && job.NotebookID == m.notebookID
}

func (m *Model) renderInitializing() string {
	return fmt.Sprintf("\n  %s Checking session...\n", m.spinner.View())
}

func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loggingIn:
		b.WriteString(m.spinner.View() + " Signing in...")
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	return styles.box.Render(b.String()) + "\n\n" + helpView
}

func (m *Model) renderList(l list.Model, keys ...key.Binding) string {
	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.notice != "":
		status = styles.ok.Render(m.notice)
	}
	return fmt.Sprintf("%s%s\n%s\n\n%s", m.renderUser(), l.View(), status, m.help.ShortHelpView(keys))
}

// renderUser is the signed-in banner above landing lists. Empty when nobody is signed in.
func (m *Model) renderUser() string {
	user := m.deps.Coordinator.Snapshot().User
	if user == nil {
		return ""
	}
	return fmt.Sprintf("%s %s\n\n", styles.help.Render("Signed in as "+user.Username), roleBadge(user.Role))
}

func (m *Model) renderArtifacts() string {
	var status string
	switch {
	case m.err != nil:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.stalled:
		status = styles.warn.Render("Could not refresh artifacts. Generation may still be running; press r to try again.")
	case m.generating():
		status = fmt.Sprintf("%s Generating... %s", m.spinner.View(), styles.help.Render(m.progress.Message))
	case m.notice != "":
		status = styles.ok.Render(m.notice)
	default:
		status = styles.help.Render(m.progress.Message)
	}

	keys := []key.Binding{m.keys.podcast, m.keys.quiz, m.keys.refresh, m.keys.back, m.keys.quit}
	if m.deps.Tracker.Active() != nil {
		keys = append(keys, m.keys.dismiss)
	}
	return fmt.Sprintf("%s\n%s\n\n%s", m.artifactList.View(), status, m.help.ShortHelpView(keys))
}
