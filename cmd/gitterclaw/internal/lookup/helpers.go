package lookup

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/gitterclaw/cmd/gitterclaw/internal"
	"github.com/tinyland-inc/gitterclaw/pkg/gitter"
)

func userCmd(cmd *cobra.Command, opts options) error {
	client, _, err := internal.NewClient(cmd.Context(), opts.debug)
	if err != nil {
		return err
	}

	users, err := client.GetUser(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return internal.PrintJSON(out, metadata(users, func(u gitter.User) map[string]any { return u.Metadata }))
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Username, u.DisplayName, u.URL})
	}
	internal.PrintTable(out, []string{"ID", "USERNAME", "NAME", "URL"}, rows)
	return nil
}

func roomsCmd(cmd *cobra.Command, opts options) error {
	return listRooms(cmd, opts, (*gitter.Client).GetRooms)
}

func channelsCmd(cmd *cobra.Command, opts options) error {
	return listRooms(cmd, opts, (*gitter.Client).GetChannels)
}

func listRooms(cmd *cobra.Command, opts options, fetch func(*gitter.Client, context.Context) ([]gitter.Room, error)) error {
	client, _, err := internal.NewClient(cmd.Context(), opts.debug)
	if err != nil {
		return err
	}

	rooms, err := fetch(client, cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return internal.PrintJSON(out, metadata(rooms, func(r gitter.Room) map[string]any { return r.Metadata }))
	}

	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.ID, r.Name, r.URI, strconv.Itoa(r.UserCount), strconv.Itoa(r.Unread)})
	}
	internal.PrintTable(out, []string{"ID", "NAME", "URI", "USERS", "UNREAD"}, rows)
	return nil
}

func reposCmd(cmd *cobra.Command, opts options) error {
	client, _, err := internal.NewClient(cmd.Context(), opts.debug)
	if err != nil {
		return err
	}

	repos, err := client.GetRepos(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return internal.PrintJSON(out, metadata(repos, func(r gitter.Repo) map[string]any { return r.Metadata }))
	}

	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		room := "-"
		if r.Room != nil {
			room = r.Room.ID
		}
		rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Name, strconv.FormatBool(r.Private), room})
	}
	internal.PrintTable(out, []string{"ID", "NAME", "PRIVATE", "ROOM"}, rows)
	return nil
}

// metadata returns the documents as the service sent them.
func metadata[T any](items []T, get func(T) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, get(item))
	}
	return out
}
