package exec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestShellLauncher(t *testing.T) {
	if _, err := os.Stat(Shell); err != nil {
		t.Skip("no shell:", err)
	}

	dir := t.TempDir()
	logFile := filepath.Join(dir, "logs", "output.log")

	pid, err := ShellLauncher{}.Launch("pwd; echo oops >&2", logFile, dir)
	if err != nil {
		t.Fatal("failed to launch:", err)
	}
	if pid <= 0 {
		t.Fatalf("invalid PID %d", pid)
	}

	var output string

	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		b, _ := os.ReadFile(logFile)
		output = string(b)
		if strings.Contains(output, "oops") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !strings.Contains(output, dir) {
		t.Errorf("command did not run in %q, output: %q", dir, output)
	}
	if !strings.Contains(output, "oops") {
		t.Errorf("stderr not redirected, output: %q", output)
	}

	// Collect the child so it does not outlive the test as a zombie.
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
		n, err := Reap()
		if err != nil {
			t.Fatal("failed to reap:", err)
		}
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Error("child was never reaped")
}

func TestShellLauncherBadDir(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "output.log")

	pid, err := ShellLauncher{}.Launch("true", logFile, "/nonexistent/dir")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if pid != NoPID {
		t.Errorf("expected NoPID, got %d", pid)
	}
}

func TestOpenLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "log")

	for _, line := range []string{"one\n", "two\n"} {
		f, err := OpenLog(path)
		if err != nil {
			t.Fatal("failed to open:", err)
		}
		f.WriteString(line)
		f.Close()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("failed to read:", err)
	}
	if string(b) != "one\ntwo\n" {
		t.Errorf("unexpected content %q", b)
	}
}

func TestFakeLauncher(t *testing.T) {
	l := FakeLauncher{PIDs: []int{100}}

	a, _ := l.Launch("a", "log", "dir")
	b, _ := l.Launch("b", "log", "dir")

	if a != 100 || b != 1 {
		t.Errorf("unexpected PIDs %d, %d", a, b)
	}

	if n := len(l.Launches()); n != 2 {
		t.Errorf("expected 2 launches, got %d", n)
	}
}
