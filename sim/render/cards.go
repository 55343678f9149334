package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nara-t/nara-sim/sim"
)

// RenderCards draws one card per item of the last successful response, in
// rank order left to right (right to left for RTL sessions).
func RenderCards(s Session, items []sim.Item, artists sim.ArtistTable) string {
	if len(items) == 0 {
		return frame(s, panelStyle, s.Label(LabelResultsTitle), []string{mutedStyle.Render(s.Label(LabelNoResults))})
	}
	cards := make([]string, 0, len(items))
	for _, it := range items {
		cards = append(cards, renderCard(s, it, artists.Lookup(it.ItemID)))
	}
	if s.RTL() {
		for i, j := 0, len(cards)-1; i < j; i, j = i+1, j-1 {
			cards[i], cards[j] = cards[j], cards[i]
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(s.Label(LabelResultsTitle)),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
	)
}

func renderCard(s Session, it sim.Item, artist string) string {
	return frame(s, cardStyle, fmt.Sprintf("#%d", it.Rank), []string{
		fmt.Sprintf("%s: %d", s.Label(LabelItem), it.ItemID),
		fmt.Sprintf("%s: %s", s.Label(LabelArtist), artist),
		fmt.Sprintf("%s: %.2f", s.Label(LabelScore), it.Score),
	})
}
