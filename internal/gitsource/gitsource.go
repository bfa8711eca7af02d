// Package gitsource keeps local checkouts of git-hosted card sources fresh.
package gitsource

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Sync clones the repository into localPath if absent, otherwise pulls the
// latest changes from origin.
func Sync(url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning card source", "url", url, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("cloning %s: %w", url, err)
		}
	case err == nil:
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("opening repo at %s: %w", localPath, err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree at %s: %w", localPath, err)
		}
		err = wt.Pull(&git.PullOptions{RemoteName: "origin"})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("pulling %s: %w", localPath, err)
		}
		slog.Info("card source up to date", "path", localPath)
	default:
		return fmt.Errorf("checking path %s: %w", localPath, err)
	}
	return nil
}
