package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/esterlin12/tvplus/internal/models"
)

var (
	_ list.Item = channelItem{}
	_ list.Item = streamItem{}
)

// channelItem wraps [models.Channel] to implement [list.Item].
type channelItem struct {
	channel models.Channel
}

func (i channelItem) FilterValue() string { return i.channel.Name }
func (i channelItem) Title() string {
	if !i.channel.Playable() {
		return fmt.Sprintf("%s (no streams)", i.channel.Name)
	}
	return i.channel.Name
}
func (i channelItem) Description() string {
	desc := i.channel.Description
	if i.channel.Category != "" {
		desc = fmt.Sprintf("%s • %s", i.channel.Category, desc)
	}
	return desc
}

// streamItem wraps one stream URL of an open channel to implement [list.Item].
type streamItem struct {
	index  int
	url    string
	active bool
}

func (i streamItem) FilterValue() string { return i.url }
func (i streamItem) Title() string {
	label := fmt.Sprintf("Stream %d", i.index+1)
	if i.active {
		label += " ▶"
	}
	return label
}
func (i streamItem) Description() string { return i.url }
