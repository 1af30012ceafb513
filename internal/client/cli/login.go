package cli

import (
	"context"
	"fmt"

	"github.com/jmezger/herdlog/internal/client/identity"
	"github.com/jmezger/herdlog/internal/common"
)

// Login stores an access token issued by the backend. The token is validated
// locally (well-formed, not expired, carries a user id) before it is kept.
func (a *App) Login(ctx context.Context) error {
	token, err := GetSecret("Paste access token", a.out)
	if err != nil {
		return err
	}

	user, err := identity.UserFromToken(string(token))
	if err != nil {
		fmt.Fprintln(a.out, "Token rejected:", err)
		return err
	}

	if err := a.repos.Metadata.Set(ctx, common.MetaKeyAccessToken, token); err != nil {
		fmt.Fprintln(a.out, "Could not store token:", err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", user.ID)
	return nil
}

// Logout forgets the stored token and closes any open session.
func (a *App) Logout(ctx context.Context) error {
	a.closeSession()
	if err := a.repos.Metadata.Clear(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}
