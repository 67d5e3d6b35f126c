package log_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphi011/bsw/internal/git"
	"github.com/raphi011/bsw/internal/git/gittest"
	"github.com/raphi011/bsw/internal/log"
)

// syncBuffer lets tests read output written by git runner goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCommand_EchoesGitInvocation(t *testing.T) {
	t.Parallel()

	repo := gittest.NewRepo(t)
	var out syncBuffer
	ctx := log.WithLogger(context.Background(), log.New(&out, true, false))

	res := git.ExecRunner{}.Git(ctx, repo, 10*time.Second, "status", "--porcelain")
	if !res.OK() {
		t.Fatalf("git status failed: %s", res.Output())
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want start and duration:\n%s", len(lines), out.String())
	}
	want := "[" + repo + "] $ git -c core.quotepath=false -c credential.helper= status --porcelain"
	if lines[0] != want {
		t.Errorf("start line = %q, want %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[1], "  (") || !strings.HasSuffix(lines[1], ") "+want) {
		t.Errorf("duration line = %q", lines[1])
	}
}

func TestCommand_SilentWithoutVerbose(t *testing.T) {
	t.Parallel()

	repo := gittest.NewRepo(t)

	for _, tt := range []struct {
		name           string
		verbose, quiet bool
	}{
		{"default", false, false},
		{"quiet", false, true},
		{"quiet wins over verbose", true, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out syncBuffer
			ctx := log.WithLogger(context.Background(), log.New(&out, tt.verbose, tt.quiet))
			git.ExecRunner{}.Git(ctx, repo, 10*time.Second, "rev-parse", "HEAD")

			if got := out.String(); got != "" {
				t.Errorf("logged %q, want nothing", got)
			}
		})
	}
}

func TestCommand_NoDirOmitsPrefix(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	done := log.New(&out, true, false).Command("", "git", "--version")
	done(1500 * time.Microsecond)

	want := "$ git --version\n  (2ms) $ git --version\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestLogger_ConcurrentReposKeepLinesWhole(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	l := log.New(&out, true, false)

	const repos = 16
	var wg sync.WaitGroup
	for i := range repos {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("repo-%02d", i)
			l.Println("✓ " + name)
			l.Printf("  [checkout] %s switched\n", name)
			l.Debug("switch finished", "repo", name, "ok", true)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3*repos {
		t.Fatalf("got %d lines, want %d", len(lines), 3*repos)
	}
	for _, line := range lines {
		ok := strings.HasPrefix(line, "✓ repo-") ||
			strings.HasPrefix(line, "  [checkout] repo-") ||
			strings.HasPrefix(line, "switch finished repo=repo-")
		if !ok {
			t.Errorf("interleaved line %q", line)
		}
	}
}

func TestDebug_WorkflowFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		keyvals []any
		want    string
	}{
		{"switch summary", []any{"branch", "release/2.0", "repos", 3, "stash", true}, "switch branch=release/2.0 repos=3 stash=true\n"},
		{"no fields", nil, "switch\n"},
		{"dangling key dropped", []any{"branch", "main", "repos"}, "switch branch=main\n"},
		{"error value", []any{"err", io.ErrUnexpectedEOF}, "switch err=unexpected EOF\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			log.New(&out, true, false).Debug("switch", tt.keyvals...)
			if got := out.String(); got != tt.want {
				t.Errorf("Debug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuiet_SuppressesProgressAndWarnings(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	l := log.New(&out, true, true)

	l.Println("! local changes will be discarded (stashing is off)")
	l.Printf("[1/2] %s\n", "client")
	l.Debug("stats update failed", "err", "locked")

	if out.Len() != 0 {
		t.Errorf("quiet logger wrote %q", out.String())
	}
	if l.IsVerbose() || !l.IsQuiet() {
		t.Errorf("IsVerbose() = %v, IsQuiet() = %v; want false, true", l.IsVerbose(), l.IsQuiet())
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("attached", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		l := log.New(&out, false, false)
		if got := log.FromContext(log.WithLogger(context.Background(), l)); got != l {
			t.Error("FromContext returned a different logger")
		}
	})

	t.Run("missing discards", func(t *testing.T) {
		t.Parallel()

		l := log.FromContext(context.Background())
		l.Println("lost")
		l.Command("/repo", "git", "fetch")(time.Second)
		if l.Writer() != io.Discard {
			t.Errorf("Writer() = %T, want io.Discard", l.Writer())
		}
		if l.IsVerbose() {
			t.Error("fallback logger is verbose")
		}
	})
}
