package extractionModel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGroups_ItemOncePerPage(t *testing.T) {
	item := ItemRef{Id: "p1-img-0", Type: ItemImage, Page: 1}
	groups := []MasterGroup{
		{Name: "A", Page: 1, SubGroups: []SubGroup{{Tag: "title", Items: []ItemRef{item}}}},
		{Name: "B", Page: 1, SubGroups: []SubGroup{{Tag: "body", Items: []ItemRef{item}}}},
	}
	assert.ErrorIs(t, ValidateGroups(groups), ErrValidation)

	groups[1].Page = 2
	assert.NoError(t, ValidateGroups(groups))
}

func TestValidateGroups_RejectsUnknownType(t *testing.T) {
	groups := []MasterGroup{
		{Name: "A", Page: 1, SubGroups: []SubGroup{{Tag: "note", Items: []ItemRef{{Id: "x", Type: "video"}}}}},
	}
	assert.ErrorIs(t, ValidateGroups(groups), ErrValidation)
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags([]Tag{{Id: "note", Label: "Note", Color: "#f39c12"}}))
	assert.ErrorIs(t, ValidateTags([]Tag{{Id: "note", Label: "Note", Color: "orange"}}), ErrValidation)
	assert.ErrorIs(t, ValidateTags([]Tag{
		{Id: "a", Label: "A", Color: "#000000"},
		{Id: "a", Label: "B", Color: "#ffffff"},
	}), ErrValidation)
}

func TestStatus_CanTrigger(t *testing.T) {
	assert.True(t, StatusUnprocessed.CanTrigger())
	assert.True(t, StatusError.CanTrigger())
	assert.False(t, StatusProcessing.CanTrigger())
	assert.False(t, StatusDone.CanTrigger())
	assert.Equal(t, "Processing", StatusProcessing.String())
}
