package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"courtside/pkg/event"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

// Entity subcommands talk to the stores directly; running servers pick
// the writes up through the change feed like any other client's.

func newMemberCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage roster members",
	}

	var tags string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			m, err := member.NewPgStore(pool).Create(ctx, cfg.Team, args[0], splitTags(tags))
			if err != nil {
				return err
			}
			printJSON(m)
			return nil
		},
	}
	add.Flags().StringVar(&tags, "tags", "", "comma-separated session-type tags")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			members, err := member.NewPgStore(pool).ByTeam(ctx, cfg.Team)
			if err != nil {
				return err
			}
			printJSON(members)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a member and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			_, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			return member.NewPgStore(pool).Delete(ctx, args[0])
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func newSessionCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	var date, typ, title, notes string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a session",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			d, err := time.Parse("2006-01-02", date)
			if err != nil {
				return err
			}
			s, err := session.NewPgStore(pool).Create(ctx, cfg.Team, d, typ, title, notes)
			if err != nil {
				return err
			}
			printJSON(s)
			return nil
		},
	}
	add.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "session date (YYYY-MM-DD)")
	add.Flags().StringVar(&typ, "type", "TR", "session-type code")
	add.Flags().StringVar(&title, "title", "", "optional title")
	add.Flags().StringVar(&notes, "notes", "", "optional notes")

	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			sessions, err := session.NewPgStore(pool).ByTeam(ctx, cfg.Team)
			if err != nil {
				return err
			}
			printJSON(sessions)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a session and its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			_, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			return session.NewPgStore(pool).Delete(ctx, args[0])
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func newEventCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Record and delete events",
	}

	var memberID, sessionID, outcome, quality string
	record := &cobra.Command{
		Use:   "record",
		Short: "Record an event",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			o, err := event.ParseOutcome(outcome)
			if err != nil {
				return err
			}
			q, err := event.ParseQuality(quality)
			if err != nil {
				return err
			}
			e, err := event.NewPgStore(pool).Record(ctx, cfg.Team, memberID, sessionID, o, q)
			if err != nil {
				return err
			}
			printJSON(e)
			return nil
		},
	}
	record.Flags().StringVar(&memberID, "member", "", "member id")
	record.Flags().StringVar(&sessionID, "session", "", "session id")
	record.Flags().StringVar(&outcome, "outcome", "", "won or lost")
	record.Flags().StringVar(&quality, "quality", "neutral", "good, neutral, or poor")
	record.MarkFlagRequired("member")
	record.MarkFlagRequired("session")
	record.MarkFlagRequired("outcome")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			_, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			return event.NewPgStore(pool).Delete(ctx, args[0])
		},
	}

	cmd.AddCommand(record, rm)
	return cmd
}

func newTypeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage custom session types",
	}

	set := &cobra.Command{
		Use:   "set <code> <name>",
		Short: "Create or update a custom session type",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			t, err := session.NewPgTypeStore(pool).Upsert(ctx, cfg.Team, args[0], args[1])
			if err != nil {
				return err
			}
			printJSON(t)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List custom session types",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			types, err := session.NewPgTypeStore(pool).ByTeam(ctx, cfg.Team)
			if err != nil {
				return err
			}
			printJSON(types)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <code>",
		Short: "Delete a custom session type",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			return session.NewPgTypeStore(pool).Delete(ctx, cfg.Team, args[0])
		},
	}

	cmd.AddCommand(set, list, rm)
	return cmd
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
