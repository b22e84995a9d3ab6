package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"svcdeck/lyrics"
	"svcdeck/plan"
	"svcdeck/state"
)

func fetchLyrics(ctx context.Context, cmd *cli.Command) error {
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

	songs, err := selectSongs(p, int(cmd.Int("song")), cmd.Bool("force"))
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		env.Log.Info("Nothing to look up, all songs have lyrics", zap.String("id", id))
		return nil
	}

	cfg := env.Cfg.Lyrics
	f := lyrics.NewMelonFetcher(env.Log,
		lyrics.WithBrowser(cfg.ChromeBin, cfg.Headless),
		lyrics.WithHomeURL(cfg.HomeURL),
		lyrics.WithTimeout(cfg.Timeout))

	if len(songs) == 1 {
		text, err := f.Fetch(ctx, lyrics.Query{Title: songs[0].Title, Artist: songs[0].Artist})
		if err != nil {
			return err
		}
		songs[0].Lyrics = text
	} else {
		queries := make([]lyrics.Query, 0, len(songs))
		for _, song := range songs {
			queries = append(queries, lyrics.Query{Title: song.Title, Artist: song.Artist})
		}
		texts, err := f.FetchBatch(ctx, queries)
		if err != nil {
			return err
		}
		for i, text := range texts {
			songs[i].Lyrics = text
		}
	}
	if err := s.Save(p, time.Now()); err != nil {
		return err
	}
	env.Log.Info("Plan lyrics updated", zap.String("id", id), zap.Int("songs", len(songs)))
	return nil
}

// selectSongs returns songs to look up. index is 1-based position in plan
// order, 0 selects every song without lyrics (or all of them when force is
// set). Explicitly selected song is looked up regardless of its lyrics.
func selectSongs(p *plan.ServicePlan, index int, force bool) ([]*plan.Song, error) {
	all := p.AllSongs()
	if index != 0 {
		if index < 0 || index > len(all) {
			return nil, fmt.Errorf("song %d does not exist, plan has %d songs", index, len(all))
		}
		return all[index-1 : index], nil
	}

	var songs []*plan.Song
	for _, song := range all {
		if len(song.Lyrics) > 0 && !force {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}
