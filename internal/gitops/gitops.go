// Package gitops versions the gajana workspace with the git binary.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the staged tree matches HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who commits workspace changes.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := git(dir, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (everything when none are given) and commits them.
// It returns the short hash of the new commit.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	add := []string{"add", "-A"}
	if len(paths) > 0 {
		add = append(add, "--")
		add = append(add, paths...)
	}
	if _, err := git(dir, add...); err != nil {
		return "", err
	}

	// diff --cached --quiet exits 1 when something is staged.
	if _, err := git(dir, "diff", "--cached", "--quiet"); err == nil {
		return "", ErrNothingToCommit
	} else if !isExit(err, 1) {
		return "", err
	}

	// The author also commits, so repositories without user.name work.
	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}
	if _, err := gitEnv(dir, env, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}
	out, err := git(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func git(dir string, args ...string) (string, error) {
	return gitEnv(dir, nil, args...)
}

func gitEnv(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &Error{Args: args, Output: strings.TrimSpace(string(out)), Err: err}
	}
	return string(out), nil
}

// Error is a failed git invocation.
type Error struct {
	Args   []string
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("git %s: %v", e.Args[0], e.Err)
	}
	return fmt.Sprintf("git %s: %s: %v", e.Args[0], e.Output, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func isExit(err error, code int) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee) && ee.ExitCode() == code
}
