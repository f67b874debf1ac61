// Command mindcheck takes a questionnaire in the terminal, against a mindcheck
// server or, with -offline, against a local JSON file.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/mind-engage/mindcheck/internal/client"
	"github.com/mind-engage/mindcheck/internal/config"
	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/scoring"
	"github.com/mind-engage/mindcheck/internal/session"
	"github.com/mind-engage/mindcheck/internal/store"
)

func main() {
	cfg := config.FromEnv()
	var (
		testID   = flag.String("test", "", "id of the test to take")
		username = flag.String("user", "", "username for login (online mode)")
		file     = flag.String("offline", cfg.OfflineFile, "take tests from this JSON file instead of the server")
		userID   = flag.String("user-id", os.Getenv("USER"), "user id recorded in offline mode")
		list     = flag.Bool("list", false, "list available tests and exit")
	)
	flag.Parse()
	log.SetFlags(0)

	offline, err := offlineSource(cfg.Mode, *file)
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		provider session.TestProvider
		sink     session.ResultSink
		lister   func(context.Context) ([]quiz.TestSummary, error)
		identity session.Identity
	)
	if offline != "" {
		tests, err := quiz.LoadTests(offline)
		if err != nil {
			log.Fatalf("load %s: %v", offline, err)
		}
		st := store.NewMemoryStore(tests...)
		provider, sink, lister = st, st, st.ListTests
		uid := *userID
		identity = session.IdentityFunc(func(context.Context) (string, error) { return uid, nil })
	} else {
		c, sub, err := connect(ctx, cfg, *username)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		provider, sink, lister = c, c, c.ListTests
		identity = session.IdentityFunc(func(context.Context) (string, error) { return sub, nil })
	}

	if *list || *testID == "" {
		tests, err := lister(ctx)
		if err != nil {
			log.Fatalf("list tests: %v", err)
		}
		for _, t := range tests {
			fmt.Printf("%-20s %-40s %d questions\n", t.ID, t.Title, t.QuestionCount)
		}
		if *testID == "" && !*list {
			fmt.Println("\nrun again with -test <id>")
		}
		return
	}

	if err := run(ctx, cfg, provider, sink, identity, *testID, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// offlineSource returns the file to read tests from, or "" to use the
// backend. A file given on the command line implies offline mode.
func offlineSource(mode config.Mode, file string) (string, error) {
	if mode == config.ModeOffline && file == "" {
		return "", errors.New("MODE=offline needs -offline or OFFLINE_FILE")
	}
	return file, nil
}

// connect builds an API client. Without client credentials configured it
// logs in interactively and returns the token's subject.
func connect(ctx context.Context, cfg config.Config, username string) (*client.Client, string, error) {
	c := client.New(client.Config{
		BaseURL:      cfg.APIBaseURL,
		TokenURL:     cfg.APITokenURL,
		ClientID:     cfg.APIClientID,
		ClientSecret: cfg.APIClientSecret,
		Timeout:      cfg.APITimeout,
	})
	if cfg.APITokenURL != "" {
		return c, cfg.APIClientID, nil
	}
	if username == "" {
		return nil, "", errors.New("-user is required in online mode")
	}
	fmt.Fprint(os.Stderr, "password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, "", err
	}
	s, err := c.Login(ctx, username, string(pw))
	if err != nil {
		return nil, "", err
	}
	return c.WithToken(s.AccessToken), s.Subject, nil
}

func run(ctx context.Context, cfg config.Config, provider session.TestProvider, sink session.ResultSink,
	identity session.Identity, testID string, in io.Reader, out io.Writer) error {
	done := make(chan scoring.Outcome, 1)
	var t quiz.Test
	s, err := session.Open(ctx, provider, sink, testID,
		session.WithFocusHighlight(cfg.FocusHighlight),
		session.WithNavigateDelay(cfg.NavigateDelay),
		session.WithLogger(log.New(io.Discard, "", 0)),
		session.WithScroller(session.ScrollerFunc(func(anchor string) {
			for i, q := range t.Questions {
				if session.Anchor(q.ID) == anchor {
					printQuestion(out, i, q)
				}
			}
		})),
		session.OnStateChange(func(st session.State) {
			if st == session.StateSubmitting {
				fmt.Fprintln(out, "submitting...")
			}
		}),
		session.OnDone(func(o scoring.Outcome) { done <- o }),
	)
	if quiz.IsNotFound(err) {
		return errors.Errorf("test %q not found", testID)
	}
	if err != nil {
		return err
	}
	defer s.Close()
	t = s.Test()

	fmt.Fprintf(out, "%s\n", t.Title)
	if t.Instructions != "" {
		fmt.Fprintf(out, "%s\n", t.Instructions)
	}
	for i, q := range t.Questions {
		printQuestion(out, i, q)
	}
	fmt.Fprintln(out, "\ncommands: <q> <opt> answer | r <q> mark for review | g <q> go to | s status | submit | quit")

	lines := make(chan string)
	stopRead := make(chan struct{})
	defer close(stopRead)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stopRead:
				return
			}
		}
	}()

	for {
		el := s.Elapsed()
		fmt.Fprintf(out, "[%02d:%02d] > ", int(el.Minutes()), int(el.Seconds())%60)
		select {
		case <-ctx.Done():
			return nil
		case o := <-done:
			fmt.Fprintf(out, "\n%s\n", o)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit := handle(ctx, s, identity, strings.Fields(line), out)
			if quit {
				return nil
			}
		}
	}
}

// handle runs one command line and reports whether to exit.
func handle(ctx context.Context, s *session.Session, identity session.Identity, f []string, out io.Writer) bool {
	t := s.Test()
	question := func(arg string) (int, bool) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(t.Questions) {
			fmt.Fprintf(out, "no question %s\n", arg)
			return 0, false
		}
		return n - 1, true
	}

	switch {
	case len(f) == 0:
	case f[0] == "quit" || f[0] == "q":
		return true
	case f[0] == "s":
		for _, st := range s.Statuses() {
			mark := " "
			if st.Focused {
				mark = "*"
			}
			fmt.Fprintf(out, "%s%3d %-7s %s\n", mark, st.Index+1, st.Status, t.Questions[st.Index].QuestionText)
		}
	case f[0] == "r" && len(f) == 2:
		if i, ok := question(f[1]); ok {
			if err := s.ToggleReview(t.Questions[i].ID); err != nil {
				fmt.Fprintln(out, err)
			}
		}
	case f[0] == "g" && len(f) == 2:
		if i, ok := question(f[1]); ok {
			_ = s.FocusQuestion(i)
		}
	case f[0] == "submit":
		o, err := s.SubmitAs(ctx, identity)
		var verr *quiz.ValidationError
		switch {
		case err == nil:
			fmt.Fprintf(out, "submitted: %s\n", o)
		case errors.As(err, &verr):
			fmt.Fprintf(out, "%d question(s) unanswered\n", verr.Count())
			if len(verr.Unanswered) > 0 {
				if i := indexOf(t, verr.Unanswered[0]); i >= 0 {
					_ = s.FocusQuestion(i)
				}
			}
		default:
			fmt.Fprintf(out, "submit failed: %v\n", err)
		}
	case len(f) == 2:
		i, ok := question(f[0])
		if !ok {
			break
		}
		q := t.Questions[i]
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 1 || n > len(q.Options) {
			fmt.Fprintf(out, "question %d has options 1-%d\n", i+1, len(q.Options))
			break
		}
		if err := s.RecordAnswer(q.ID, q.Options[n-1].ID); err != nil {
			fmt.Fprintln(out, err)
		}
	default:
		fmt.Fprintln(out, "unknown command")
	}
	return false
}

func indexOf(t quiz.Test, questionID string) int {
	for i, q := range t.Questions {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

func printQuestion(out io.Writer, i int, q quiz.Question) {
	fmt.Fprintf(out, "\n%d. %s\n", i+1, q.QuestionText)
	for j, o := range q.Options {
		fmt.Fprintf(out, "   %d) %s\n", j+1, o.OptionText)
	}
}
