// Package gitrepo commits board file revisions when the board directory
// lives inside a git work tree. Every save becomes a commit, so the board
// history rides along with whatever repository the user keeps it in.
package gitrepo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FindGitDir walks up from start and returns the git directory path
// (e.g. /repo/.git or a linked gitdir). It does not invoke the git binary.
func FindGitDir(start string) (gitDir string, ok bool, err error) {
	dir := filepath.Clean(strings.TrimSpace(start))
	if dir == "" {
		return "", false, errors.New("empty start dir")
	}

	for {
		candidate := filepath.Join(dir, ".git")
		st, statErr := os.Stat(candidate)
		switch {
		case statErr == nil && st.IsDir():
			return candidate, true, nil
		case statErr == nil && !st.IsDir():
			// Worktrees/submodules can use a .git file pointing at the real gitdir.
			target, err := readGitdirFile(candidate)
			if err != nil {
				return "", false, err
			}
			if target != "" {
				return target, true, nil
			}
		default:
			// keep walking up
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func readGitdirFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if ln == "" {
			continue
		}
		// Expected: "gitdir: /path/to/dir"
		if strings.HasPrefix(strings.ToLower(ln), "gitdir:") {
			p := strings.TrimSpace(strings.TrimPrefix(ln, "gitdir:"))
			if p == "" {
				return "", nil
			}
			// Resolve relative paths relative to the .git file dir.
			if !filepath.IsAbs(p) {
				p = filepath.Join(filepath.Dir(path), p)
			}
			return filepath.Clean(p), nil
		}
		// Unexpected content; stop.
		break
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", nil
}

// CommitBoardFile stages the named file inside dir and commits it. The
// pathspec on the commit keeps unrelated work the user has staged out of the
// resulting commit. Returns committed=false when dir is not inside a git
// work tree or the file has not changed since the last commit.
func CommitBoardFile(ctx context.Context, dir, file, message string) (committed bool, err error) {
	dir = filepath.Clean(dir)
	if _, ok, err := FindGitDir(dir); err != nil || !ok {
		return false, err
	}

	if _, err := runGit(ctx, dir, "add", "--", file); err != nil {
		return false, err
	}
	out, err := runGit(ctx, dir, "diff", "--cached", "--name-only", "--", file)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(out) == "" {
		return false, nil
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "kanban: update " + file
	}
	if _, err := runGit(ctx, dir, "commit", "-m", msg, "--", file); err != nil {
		return false, err
	}
	return true, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return string(out), nil
}
