package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/expo-open-ota/eoas/internal/output"
)

// ErrDirtyTree is returned when uncommitted changes block the operation.
var ErrDirtyTree = errors.New("Commit all changes. Aborting...")

// EnsureClean blocks on a dirty working tree. Interactive sessions may commit
// everything on the spot; non-interactive ones list the changed files and
// fail.
func EnsureClean(ctx context.Context, client Client, out *output.Writer, prompt output.Prompter, nonInteractive bool) error {
	dirty, err := client.IsCommitRequired(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	out.Warning("Warning! Your repository working tree is dirty.")
	out.Println("This operation needs to be run on a clean working tree. Commit all your changes before proceeding.")

	if nonInteractive || !prompt.IsInteractive() {
		out.Println("The following files need to be committed:")
		if err := client.ShowChangedFiles(ctx, out.Writer()); err != nil {
			return err
		}
		return ErrDirtyTree
	}

	commit, err := prompt.Confirm("Commit changes to git?")
	if err != nil {
		return err
	}
	if !commit {
		return ErrDirtyTree
	}

	message, err := prompt.Input("Commit message:", "", requireNonEmpty)
	if err != nil {
		return err
	}
	return client.Commit(ctx, message)
}

func requireNonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	return nil
}
