package store

import (
	"path/filepath"
	"sync"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
)

var DefaultTags = []extractionModel.Tag{
	{Id: "note", Label: "Note", Color: "#f39c12"},
	{Id: "title", Label: "Title", Color: "#e74c3c"},
	{Id: "caption", Label: "Caption", Color: "#3498db"},
	{Id: "subtitle", Label: "Subtitle", Color: "#9b59b6"},
	{Id: "body", Label: "Body", Color: "#2ecc71"},
}

// AnnotationStore persists per-extraction groups.json files and the global tag list.
type AnnotationStore struct {
	tagsPath string
	tagsLock sync.Mutex
}

func InitAnnotationStore(tagsPath string) *AnnotationStore {
	return &AnnotationStore{tagsPath: tagsPath}
}

func (a *AnnotationStore) LoadGroups(extractionDir string) ([]extractionModel.MasterGroup, error) {
	groups := make([]extractionModel.MasterGroup, 0)
	if _, err := readJSON(filepath.Join(extractionDir, config.GroupsFileName), &groups); err != nil {
		return make([]extractionModel.MasterGroup, 0), err
	}
	return groups, nil
}

func (a *AnnotationStore) SaveGroups(extractionDir string, groups []extractionModel.MasterGroup) error {
	if err := extractionModel.ValidateGroups(groups); err != nil {
		return err
	}
	if groups == nil {
		groups = make([]extractionModel.MasterGroup, 0)
	}
	return writeJSONAtomic(filepath.Join(extractionDir, config.GroupsFileName), groups)
}

// LoadTags returns the stored vocabulary, or the defaults when none was saved.
func (a *AnnotationStore) LoadTags() ([]extractionModel.Tag, error) {
	a.tagsLock.Lock()
	defer a.tagsLock.Unlock()
	var tags []extractionModel.Tag
	found, err := readJSON(a.tagsPath, &tags)
	if err != nil {
		return append([]extractionModel.Tag{}, DefaultTags...), err
	}
	if !found || len(tags) == 0 {
		return append([]extractionModel.Tag{}, DefaultTags...), nil
	}
	return tags, nil
}

func (a *AnnotationStore) SaveTags(tags []extractionModel.Tag) error {
	if err := extractionModel.ValidateTags(tags); err != nil {
		return err
	}
	a.tagsLock.Lock()
	defer a.tagsLock.Unlock()
	return writeJSONAtomic(a.tagsPath, tags)
}
