package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moodlist/internal/moods"
)

var _ list.Item = moodItem{}

// moodItem wraps [moods.Mood] to implement [list.Item].
type moodItem struct {
	mood moods.Mood
}

func (i moodItem) FilterValue() string { return i.mood.String() }
func (i moodItem) Title() string       { return i.mood.Title() }
func (i moodItem) Description() string {
	return "seeds: " + strings.Join(i.mood.Seeds(), ", ")
}

func moodItems() []list.Item {
	all := moods.All()
	items := make([]list.Item, len(all))
	for i, m := range all {
		items[i] = moodItem{mood: m}
	}
	return items
}
