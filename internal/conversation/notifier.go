package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Notifier  = (*CLINotifier)(nil)
	_ domain.Navigator = (*CLINotifier)(nil)
)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
	dim   = "\033[2m"
)

// PrintFunc is a function used to print formatted output.
// Matches the signature of both fmt.Printf and display.UI.Printf.
type PrintFunc func(format string, a ...interface{})

// CLINotifier writes notifications to stdout with ANSI formatting. It also
// acts as a navigation sink for headless runs, where there is no page to
// render and the target is only printed and remembered.
type CLINotifier struct {
	log     *logger.Logger
	printFn PrintFunc

	mu   sync.Mutex
	page domain.Page
}

// NewCLINotifier creates a stdout-based notifier.
// If printFn is nil, fmt.Printf is used.
func NewCLINotifier(log *logger.Logger, printFn PrintFunc) *CLINotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &CLINotifier{log: log, printFn: printFn}
}

// Notify prints a normal notification.
func (n *CLINotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.printFn("%s%s%s%s", cyan, bold, message, reset)
	return nil
}

// NotifyUrgent prints an urgent notification in bold red.
func (n *CLINotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.printFn("%s%s%s%s", red, bold, message, reset)
	return nil
}

// Navigate records the target page and prints it.
func (n *CLINotifier) Navigate(ctx context.Context, page domain.Page) error {
	n.mu.Lock()
	n.page = page
	n.mu.Unlock()
	n.printFn("%s-> %s%s", dim, page, reset)
	return nil
}

// Page returns the last page navigated to.
func (n *CLINotifier) Page() domain.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page
}

// Navigators fans a navigation out to several sinks, such as the terminal
// and connected displays. Every sink is called; the errors are joined.
type Navigators []domain.Navigator

// Navigate forwards page to each sink in order.
func (ns Navigators) Navigate(ctx context.Context, page domain.Page) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Navigate(ctx, page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
