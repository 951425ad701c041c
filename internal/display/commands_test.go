package display

import (
	"strings"
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/domain"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"listen", Command{Kind: CmdListen}},
		{"  LISTEN ", Command{Kind: CmdListen}},
		{"stop", Command{Kind: CmdStop}},
		{"quit", Command{Kind: CmdQuit}},
		{"exit", Command{Kind: CmdQuit}},
		{"help", Command{Kind: CmdHelp}},
		{"page storage", Command{Kind: CmdPage, Page: domain.PageStorage, Arg: "storage"}},
		{"Page  Meals", Command{Kind: CmdPage, Page: domain.PageMeals, Arg: "meals"}},
		{"page garage", Command{Kind: CmdPage, Page: domain.PageNone, Arg: "garage"}},
		{"What can I cook?", Command{Kind: CmdSay, Text: "What can I cook?"}},
		{"stop the music", Command{Kind: CmdSay, Text: "stop the music"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseCommand(tt.input); got != tt.want {
				t.Fatalf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestModelTracksStateAndPage(t *testing.T) {
	m := model{page: domain.PageDashboard}

	next, _ := m.Update(stateMsg(domain.TurnCapturing))
	next, _ = next.(model).Update(pageMsg(domain.PageShopping))
	got := next.(model)

	if got.state != domain.TurnCapturing || got.page != domain.PageShopping {
		t.Fatalf("state = %s page = %s", got.state, got.page)
	}
	if got.titleStr() != "PantryChef: capturing" {
		t.Fatalf("title = %q", got.titleStr())
	}
}

func TestUIObserverBeforeRun(t *testing.T) {
	u := NewUI(domain.PageDashboard)
	u.OnState(domain.TurnSpeaking)
	u.ShowPage(domain.PageMeals)
	if u.Page() != domain.PageMeals {
		t.Fatalf("page = %s", u.Page())
	}
}

func TestCentre(t *testing.T) {
	out := centre("ab\nabcd\n", 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "   ") {
			t.Fatalf("line %q not padded by 3", l)
		}
	}
}
