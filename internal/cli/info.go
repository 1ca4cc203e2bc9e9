package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"
)

const orphanListLimit = 20

func (a *App) WhoAmI(_ context.Context) error {
	s := a.sessions.Current()
	if s == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	verified := "no"
	if s.Identity.Verified {
		verified = "yes"
	}
	fmt.Fprintf(a.out, "Email:    %s\n", s.Identity.Email)
	fmt.Fprintf(a.out, "ID:       %s\n", s.Identity.ID)
	fmt.Fprintf(a.out, "Verified: %s\n", verified)
	fmt.Fprintf(a.out, "Since:    %s\n", s.StartedAt.Format(time.RFC3339))
	return nil
}

// Orphans lists identities that a failed registration could not remove.
func (a *App) Orphans(ctx context.Context) error {
	if a.orphans == nil {
		fmt.Fprintln(a.out, "Orphan tracking is not configured.")
		return nil
	}

	list, err := a.orphans.List(ctx, orphanListLimit)
	if err != nil {
		fmt.Fprintf(a.out, "Unable to list orphaned identities: %v\n", err)
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No orphaned identities.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DETECTED\tIDENTITY\tEMAIL\tDELETE ERROR")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.DetectedAt.Format(time.RFC3339), o.IdentityID, o.Email, o.DeleteError)
	}
	return tw.Flush()
}
