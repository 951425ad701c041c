package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

func TestCLINotifierNavigate(t *testing.T) {
	var lines []string
	n := NewCLINotifier(logger.New(logger.LevelOff, nil), func(format string, a ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, a...))
	})

	if err := n.Navigate(context.Background(), domain.PageStorage); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if n.Page() != domain.PageStorage {
		t.Errorf("page = %s, want storage", n.Page())
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "storage") {
		t.Errorf("printed %q", lines)
	}

	_ = n.NotifyUrgent(context.Background(), "mic lost")
	if len(lines) != 2 || !strings.Contains(lines[1], red) {
		t.Errorf("urgent line not red: %q", lines)
	}
}

type failingNavigator struct{ err error }

func (f failingNavigator) Navigate(ctx context.Context, page domain.Page) error { return f.err }

func TestNavigatorsFanOut(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	quiet := func(string, ...interface{}) {}
	a := NewCLINotifier(log, quiet)
	b := NewCLINotifier(log, quiet)
	boom := errors.New("display offline")

	ns := Navigators{a, failingNavigator{boom}, nil, b}
	err := ns.Navigate(context.Background(), domain.PageMeals)

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want display offline", err)
	}
	if a.Page() != domain.PageMeals || b.Page() != domain.PageMeals {
		t.Fatalf("pages = %s, %s; every sink should be called", a.Page(), b.Page())
	}
}
