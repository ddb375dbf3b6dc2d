package ota

import (
	"context"
	"errors"
	"fmt"
)

// ResolveReleaseChannel returns the release channel linked to branch on the
// server.
func ResolveReleaseChannel(ctx context.Context, client Client, branch string) (string, error) {
	branches, err := client.ListBranches(ctx)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return "", fmt.Errorf("Failed to retrieve branches from server: %s", statusErr.Body)
		}
		return "", fmt.Errorf("Failed to retrieve branches from server: %w", err)
	}

	for _, b := range branches {
		if b.BranchName != branch {
			continue
		}
		if b.ReleaseChannel == nil || *b.ReleaseChannel == "" {
			return "", fmt.Errorf("Branch %s does not have a release channel linked", branch)
		}
		return *b.ReleaseChannel, nil
	}
	return "", fmt.Errorf("Branch %s not found", branch)
}
