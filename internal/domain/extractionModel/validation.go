package extractionModel

import (
	"fmt"
	"regexp"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateGroups checks that an item id is grouped at most once per page and
// that every item carries a known type.
func ValidateGroups(groups []MasterGroup) error {
	type pageItem struct {
		page int
		id   string
	}
	seen := make(map[pageItem]string)
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("group on page %d has no name: %w", g.Page, ErrValidation)
		}
		for _, sub := range g.SubGroups {
			if sub.Tag == "" {
				return fmt.Errorf("group %q has a subgroup without tag: %w", g.Name, ErrValidation)
			}
			for _, item := range sub.Items {
				if item.Id == "" || !item.Type.Valid() {
					return fmt.Errorf("group %q has an invalid item %q: %w", g.Name, item.Id, ErrValidation)
				}
				key := pageItem{page: g.Page, id: item.Id}
				if owner, dup := seen[key]; dup {
					return fmt.Errorf("item %q on page %d is in both %q and %q: %w", item.Id, g.Page, owner, g.Name, ErrValidation)
				}
				seen[key] = g.Name
			}
		}
	}
	return nil
}

func ValidateTags(tags []Tag) error {
	ids := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t.Id == "" || t.Label == "" {
			return fmt.Errorf("tag needs id and label: %w", ErrValidation)
		}
		if !hexColor.MatchString(t.Color) {
			return fmt.Errorf("tag %q color %q is not #rrggbb: %w", t.Id, t.Color, ErrValidation)
		}
		if _, dup := ids[t.Id]; dup {
			return fmt.Errorf("duplicate tag %q: %w", t.Id, ErrValidation)
		}
		ids[t.Id] = struct{}{}
	}
	return nil
}
