package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"svcdeck/plan"
	"svcdeck/state"
)

func singleArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("no %s has been specified", what)
	}
	if cmd.Args().Len() > 1 {
		return "", fmt.Errorf("malformed command line, single %s expected", what)
	}
	return cmd.Args().First(), nil
}

func planInit(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	p, err := plan.New(int(cmd.Int("praise")), cmd.String("prayer"), cmd.String("title"), cmd.String("phrases"),
		!cmd.Bool("no-offering"), !cmd.Bool("no-closing"))
	if err != nil {
		return err
	}
	s, err := env.Store()
	if err != nil {
		return err
	}
	id, err := s.Create(p, time.Now())
	if err != nil {
		return err
	}
	env.Log.Info("Plan created", zap.String("id", id), zap.Int("praise", p.PraiseCount), zap.Int("phrases", len(p.SermonPhrases)))
	fmt.Fprintln(os.Stdout, id)
	return nil
}

func planSongs(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	id, err := singleArg(cmd, "plan id")
	if err != nil {
		return err
	}
	s, err := env.Store()
	if err != nil {
		return err
	}
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if praise := cmd.StringSlice("praise"); len(praise) > 0 {
		songs := make([]plan.Song, 0, len(praise))
		for i, v := range praise {
			song := plan.ParseSong(v)
			// keep already fetched lyrics when song did not change
			if i < len(p.Songs.Praise) && p.Songs.Praise[i].Title == song.Title && p.Songs.Praise[i].Artist == song.Artist {
				song.Lyrics = p.Songs.Praise[i].Lyrics
			}
			songs = append(songs, song)
		}
		p.Songs.Praise = songs
	}
	if v := cmd.String("offering"); len(v) > 0 {
		if p.Flags.IncludeOffering {
			song := plan.ParseSong(v)
			p.Songs.Offering = &song
		} else {
			env.Log.Warn("Plan has no offering, ignoring song", zap.String("song", v))
		}
	}
	if v := cmd.String("closing"); len(v) > 0 {
		if p.Flags.IncludeClosing {
			song := plan.ParseSong(v)
			p.Songs.Closing = &song
		} else {
			env.Log.Warn("Plan has no closing, ignoring song", zap.String("song", v))
		}
	}

	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.Save(p, time.Now()); err != nil {
		return err
	}
	env.Log.Info("Plan songs updated", zap.String("id", id), zap.Int("songs", len(p.AllSongs())))
	return nil
}

func planShow(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	id, err := singleArg(cmd, "plan id")
	if err != nil {
		return err
	}
	s, err := env.Store()
	if err != nil {
		return err
	}
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	data, err := p.Encode()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func planImport(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	fname, err := singleArg(cmd, "plan file")
	if err != nil {
		return err
	}
	p, err := plan.Load(fname)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", fname, err)
	}
	s, err := env.Store()
	if err != nil {
		return err
	}
	id, err := s.Create(p, time.Now())
	if err != nil {
		return err
	}
	env.Log.Info("Plan imported", zap.String("file", fname), zap.String("id", id))
	fmt.Fprintln(os.Stdout, id)
	return nil
}

func planList(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)

	s, err := env.Store()
	if err != nil {
		return err
	}
	list, err := s.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tSERMON")
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Updated.Local().Format(time.DateTime), e.SermonTitle)
	}
	return w.Flush()
}

func planDelete(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	id, err := singleArg(cmd, "plan id")
	if err != nil {
		return err
	}
	s, err := env.Store()
	if err != nil {
		return err
	}
	if err := s.Delete(id); err != nil {
		return err
	}
	env.Log.Info("Plan deleted", zap.String("id", id))
	return nil
}
