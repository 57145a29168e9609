package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
)

var (
	_ list.Item = notebookItem{}
	_ list.Item = moduleItem{}
	_ list.Item = artifactItem{}
)

// notebookItem wraps [models.Notebook] to implement [list.Item].
type notebookItem struct {
	notebook models.Notebook
}

func (i notebookItem) FilterValue() string { return i.notebook.Name }
func (i notebookItem) Title() string       { return i.notebook.Name }
func (i notebookItem) Description() string { return i.notebook.ID }

// moduleItem wraps [models.Module] to implement [list.Item].
type moduleItem struct {
	module models.Module
}

func (i moduleItem) FilterValue() string { return i.module.Name }
func (i moduleItem) Title() string       { return i.module.Name }
func (i moduleItem) Description() string { return fmt.Sprintf("notebook %s", i.module.NotebookID) }

// artifactItem wraps [models.Artifact] to implement [list.Item].
type artifactItem struct {
	artifact models.Artifact
}

func (i artifactItem) FilterValue() string { return i.artifact.Title }
func (i artifactItem) Title() string {
	if i.artifact.Title == "" {
		return i.artifact.ID
	}
	return i.artifact.Title
}
func (i artifactItem) Description() string {
	return fmt.Sprintf("%s • %s", i.artifact.Type, statusStyle(i.artifact).Render(formatter.StatusLabel(i.artifact)))
}

func notebookItems(notebooks []models.Notebook) []list.Item {
	items := make([]list.Item, len(notebooks))
	for i, nb := range notebooks {
		items[i] = notebookItem{notebook: nb}
	}
	return items
}

func moduleItems(modules []models.Module) []list.Item {
	items := make([]list.Item, len(modules))
	for i, m := range modules {
		items[i] = moduleItem{module: m}
	}
	return items
}

func artifactItems(artifacts []models.Artifact) []list.Item {
	items := make([]list.Item, len(artifacts))
	for i, a := range artifacts {
		items[i] = artifactItem{artifact: a}
	}
	return items
}
