// Package hub resolves a stored notebook destination to its user-facing
// JupyterHub URL.
package hub

import (
	"context"
	"fmt"
	"strings"

	"github.com/sciapp/notebook-templates/internal/auth"
	"github.com/sciapp/notebook-templates/pkg/domain"
)

// None reports no hub URL for any destination: the workflow then falls back
// to inline delivery or a plain acknowledgement.
type None struct{}

func (None) Resolve(context.Context, domain.Destination) (string, error) { return "", nil }

// Static builds URLs of the conventional {base}/user/{user}/{relative}
// shape. When User is empty, the authenticated user from the request
// context is used instead.
type Static struct {
	BaseURL string
	User    string
}

func (s *Static) Resolve(ctx context.Context, dest domain.Destination) (string, error) {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		return "", nil
	}
	user := s.User
	if user == "" {
		ctxUser, ok := auth.UserFromContext(ctx)
		if !ok {
			return "", fmt.Errorf("no user for hub URL")
		}
		user = ctxUser
	}
	return base + "/user/" + user + "/" + dest.RelativePath(), nil
}
