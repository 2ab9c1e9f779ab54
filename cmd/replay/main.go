// Command replay rebuilds a game from a recorded event log and prints the
// resulting view, grounded on the teacher's cmd/cli/ui.go lipgloss
// rendering (panels, bordered styles, terminal width detection) adapted
// from an interactive session display to a one-shot reconstruction dump.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/replay"
	"mtgserver/internal/engine/view"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	lifeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

func main() {
	logFile := flag.String("log", "", "path to a JSON array of domain.EventRecord")
	viewerID := flag.String("player", "", "player id to render the view from (empty: full authoritative view)")
	flag.Parse()

	if *logFile == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -log game-events.json [-player p1]")
		os.Exit(1)
	}

	records, err := loadRecords(*logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load event log: %v\n", err)
		os.Exit(1)
	}

	g, err := replay.Rebuild(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild game: %v\n", err)
		os.Exit(1)
	}

	gv := view.Project(g, *viewerID)
	fmt.Println(render(gv))
}

func loadRecords(path string) ([]domain.EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.EventRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func render(gv view.GameView) string {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 100
	}

	var sections []string
	sections = append(sections, panelStyle.Width(width-4).Render(renderHeader(gv)))
	sections = append(sections, panelStyle.Width(width-4).Render(renderStack(gv)))
	for _, pid := range sortedPlayerIDs(gv) {
		sections = append(sections, panelStyle.Width(width-4).Render(renderPlayer(gv.Players[pid])))
	}
	if gv.Ended {
		sections = append(sections, panelStyle.Width(width-4).Render(renderOutcome(gv)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderHeader(gv view.GameView) string {
	return fmt.Sprintf("%s\nTurn %d · %s (%s turn) · phase %s step %s · priority: %s",
		headerStyle.Render("Game "+gv.GameID+" — seq "+fmt.Sprint(gv.Seq)),
		gv.TurnNumber, gv.TurnPlayerID, gv.TurnPlayerID, gv.CurrentPhase, gv.CurrentStep,
		mutedStyle.Render(orNone(gv.PriorityHolder)))
}

func renderStack(gv view.GameView) string {
	if len(gv.Stack) == 0 {
		return headerStyle.Render("Stack") + "\n" + mutedStyle.Render("(empty)")
	}
	out := headerStyle.Render("Stack") + "\n"
	for i := len(gv.Stack) - 1; i >= 0; i-- {
		item := gv.Stack[i]
		out += fmt.Sprintf("  [%d] %s — controller %s\n", i, item.ID, item.ControllerID)
	}
	return out
}

func renderPlayer(pv view.PlayerView) string {
	out := headerStyle.Render(pv.PlayerID)
	out += fmt.Sprintf(" — %s  library:%d  graveyard:%d  exile:%d\n",
		lifeStyle.Render(fmt.Sprintf("%d life", pv.Life)), pv.LibraryCount, len(pv.Graveyard), len(pv.Exile))
	if pv.Poison > 0 {
		out += fmt.Sprintf("  poison: %d\n", pv.Poison)
	}
	if len(pv.Hand) > 0 {
		out += fmt.Sprintf("  hand (%d): ", len(pv.Hand))
		for i, c := range pv.Hand {
			if i > 0 {
				out += ", "
			}
			out += c.Name
		}
		out += "\n"
	} else if len(pv.HiddenHand) > 0 {
		out += fmt.Sprintf("  hand: %d cards (hidden)\n", len(pv.HiddenHand))
	}
	if pv.Lost {
		out += mutedStyle.Render("  has lost the game") + "\n"
	}
	return out
}

func renderOutcome(gv view.GameView) string {
	if len(gv.Winners) == 0 {
		return headerStyle.Render("Game ended in a draw")
	}
	return headerStyle.Render(fmt.Sprintf("Game ended — winner(s): %v", gv.Winners))
}

func sortedPlayerIDs(gv view.GameView) []string {
	ids := make([]string, 0, len(gv.Players))
	for id := range gv.Players {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
