package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgInitialized MsgKind = iota
	MsgLoggedIn
	MsgLoggedOut
	MsgNotebooksFetched
	MsgModulesFetched
	MsgProgressUpdate
	MsgWatchDone
	MsgRefreshTick
	MsgJobAccepted
)

type watchResult struct {
	artifacts []models.Artifact
	err       error
}

// watchHandle identifies one poll loop. Messages from an older generation are dropped.
type watchHandle struct {
	gen     int
	updates <-chan tasks.ProgressUpdate
	done    <-chan watchResult
}

type progressData struct {
	handle watchHandle
	update tasks.ProgressUpdate
}

type watchDoneData struct {
	gen int
	watchResult
}

type loginData struct {
	identity *models.Identity
	err      error
}

type notebooksData struct {
	notebooks []models.Notebook
	err       error
}

type modulesData struct {
	modules []models.Module
	err     error
}

type jobData struct {
	job *models.ActiveJob
	err error
}

// initializedMsg is the constructor for [MsgInitialized]
func initializedMsg() Msg {
	return Msg{kind: MsgInitialized}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(identity *models.Identity, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loginData{identity, err}}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg() Msg {
	return Msg{kind: MsgLoggedOut}
}

// notebooksFetchedMsg is the constructor for [MsgNotebooksFetched]
func notebooksFetchedMsg(notebooks []models.Notebook, err error) Msg {
	return Msg{kind: MsgNotebooksFetched, data: notebooksData{notebooks, err}}
}

// modulesFetchedMsg is the constructor for [MsgModulesFetched]
func modulesFetchedMsg(modules []models.Module, err error) Msg {
	return Msg{kind: MsgModulesFetched, data: modulesData{modules, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(handle watchHandle, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressData{handle, update}}
}

// watchDoneMsg is the constructor for [MsgWatchDone]
func watchDoneMsg(gen int, result watchResult) Msg {
	return Msg{kind: MsgWatchDone, data: watchDoneData{gen, result}}
}

// refreshTickMsg is the constructor for [MsgRefreshTick]
func refreshTickMsg(gen int) Msg {
	return Msg{kind: MsgRefreshTick, data: gen}
}

// jobAcceptedMsg is the constructor for [MsgJobAccepted]
func jobAcceptedMsg(job *models.ActiveJob, err error) Msg {
	return Msg{kind: MsgJobAccepted, data: jobData{job, err}}
}
