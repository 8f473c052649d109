package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/tend/internal/core/todo"
)

const remoteCheckTimeout = 3 * time.Second

// RemoteCheck verifies the remote store answers a list request.
type RemoteCheck struct {
	remote  todo.Remote
	baseURL string
}

// NewRemoteCheck creates a new remote reachability check.
func NewRemoteCheck(remote todo.Remote, baseURL string) *RemoteCheck {
	return &RemoteCheck{remote: remote, baseURL: baseURL}
}

func (c *RemoteCheck) Name() string {
	return "Remote"
}

func (c *RemoteCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	todos, err := c.remote.ListActive(ctx)
	if err != nil {
		// Commands still work offline against local state.
		result.Items = append(result.Items, CheckItem{
			Label:  c.baseURL,
			Status: StatusWarn,
			Detail: fmt.Sprintf("unreachable: %v", err),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  c.baseURL,
		Status: StatusPass,
		Detail: fmt.Sprintf("%d active todo(s)", len(todos)),
	})
	return result
}
