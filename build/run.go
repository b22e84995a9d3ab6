// Package build turns service plans into presentation decks.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"svcdeck/config"
	"svcdeck/deck"
	"svcdeck/layout"
	"svcdeck/plan"
	"svcdeck/pptx"
	"svcdeck/scripture"
	"svcdeck/state"
)

// DateLayout is format of --date flag.
const DateLayout = "2006-01-02"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("no service plan has been specified")
	}
	sources, dst := args, env.Cfg.Cleanup.OutputDir
	if len(args) > 1 {
		sources, dst = args[:len(args)-1], args[len(args)-1]
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	env.Overwrite = cmd.Bool("overwrite")
	env.ServiceDate = time.Now()
	if d := cmd.String("date"); len(d) > 0 {
		if env.ServiceDate, err = time.ParseInLocation(DateLayout, d, time.Local); err != nil {
			return fmt.Errorf("unable to parse service date %q: %w", d, err)
		}
	}
	if t := cmd.String("template"); len(t) > 0 {
		env.Cfg.Document.TemplatePath = t
	}

	jobs := int(cmd.Int("jobs"))
	if jobs <= 0 {
		jobs = env.Cfg.Build.Jobs
	}

	b, err := newBuilder(env, log)
	if err != nil {
		return err
	}
	defer b.close()

	log.Info("Processing starting",
		zap.Strings("plans", sources), zap.String("destination", dst),
		zap.String("date", env.ServiceDate.Format(DateLayout)), zap.Int("jobs", jobs))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return b.buildAll(ctx, sources, dst, jobs)
}

// builder keeps what is shared by all plans of a single run.
type builder struct {
	env      *state.LocalEnv
	tmpl     *pptx.Template
	composer *deck.Composer
	workDir  string
	keepWork bool
	log      *zap.Logger
}

func newBuilder(env *state.LocalEnv, log *zap.Logger) (*builder, error) {
	cfg := env.Cfg

	if len(cfg.Document.TemplatePath) == 0 {
		return nil, errors.New("presentation template has not been configured")
	}
	tmpl, err := pptx.Open(cfg.Document.TemplatePath, log)
	if err != nil {
		return nil, err
	}
	if missing := missingLayouts(tmpl); len(missing) > 0 {
		log.Warn("Template lacks layouts, decks using them will fail",
			zap.String("template", cfg.Document.TemplatePath), zap.Stringers("kinds", missing))
	}

	enc, err := scripture.LookupEncoding(cfg.Corpus.Encoding)
	if err != nil {
		return nil, err
	}
	opts := []scripture.Option{scripture.WithEncoding(enc), scripture.WithPlaceholder(cfg.Corpus.Placeholder)}
	if cfg.Corpus.Cache {
		opts = append(opts, scripture.WithCache())
	}
	corpus := scripture.NewCorpus(cfg.Corpus.Dir, log, opts...)

	composer := deck.NewComposer(corpus, log,
		deck.WithLabels(labelsFromConfig(&cfg.Document.Labels)),
		deck.WithStrict(cfg.Build.Strict))

	workDir, err := os.MkdirTemp("", "svcdeck-")
	if err != nil {
		return nil, fmt.Errorf("unable to create working directory: %w", err)
	}

	b := &builder{env: env, tmpl: tmpl, composer: composer, workDir: workDir, log: log}
	if env.Rpt != nil {
		// report removes directory when finalized
		env.Rpt.Store("work", workDir)
		b.keepWork = true
	}
	return b, nil
}

// missingLayouts returns slide kinds template has no layout for.
func missingLayouts(tmpl *pptx.Template) []layout.Kind {
	var missing []layout.Kind
	for _, k := range layout.Kinds() {
		ref, err := layout.Resolve(k)
		if err != nil {
			continue
		}
		if _, err := tmpl.LayoutPart(ref.Master, ref.Layout); err != nil {
			missing = append(missing, k)
		}
	}
	return missing
}

func labelsFromConfig(cfg *config.LabelsConfig) deck.Labels {
	return deck.Labels{
		ServiceDateLayout: cfg.ServiceDateLayout,
		SermonSpeaker:     cfg.SermonSpeaker,
		DefaultPrayer:     cfg.DefaultPrayer,
		Praise:            cfg.Praise,
		Offering:          cfg.Offering,
		Closing:           cfg.Closing,
	}
}

func (b *builder) close() {
	if !b.keepWork {
		os.RemoveAll(b.workDir)
	}
}

// buildAll processes plans concurrently, at most jobs at a time. Failure of
// a single plan does not stop others.
func (b *builder) buildAll(ctx context.Context, sources []string, dst string, jobs int) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	g.SetLimit(jobs)

	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := b.processPlan(ctx, src, dst); err != nil {
				b.log.Error("Unable to build deck", zap.String("plan", src), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}

// processPlan builds single deck and returns its path. src is either plan
// file or id of stored plan.
func (b *builder) processPlan(ctx context.Context, src, dst string) (outputName string, rerr error) {
	env := b.env
	log := b.log

	log.Info("Build starting", zap.String("plan", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Build ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("build panic: %v", r)
		} else if rerr == nil {
			log.Info("Build completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	p, source, err := b.loadPlan(src)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() && env.Rpt != nil {
		// plan file may change later, keep it as it was built
		if err := env.Rpt.StoreCopy(fmt.Sprintf("plans/%s%s", source, filepath.Ext(src)), src); err != nil {
			log.Debug("Unable to store plan source", zap.Error(err))
		}
	}

	slides, err := b.composer.Compose(ctx, p, env.ServiceDate)
	if err != nil {
		return "", fmt.Errorf("unable to compose deck: %w", err)
	}

	outputName = buildOutputPath(p, source, dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return "", fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	if err := b.tmpl.Write(ctx, slides, outputName, b.workDir, env.Cfg.Document.FixZip); err != nil {
		return "", fmt.Errorf("unable to generate output: %w", err)
	}

	// Store build result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", source, deckExt), outputName)
	}
	return outputName, nil
}

// loadPlan reads plan from file or, when no such file exists, from the store.
// It also returns name identifying plan source in output names.
func (b *builder) loadPlan(src string) (*plan.ServicePlan, string, error) {
	if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() {
		p, err := plan.Load(src)
		if err != nil {
			return nil, "", err
		}
		base := filepath.Base(src)
		return p, strings.TrimSuffix(base, filepath.Ext(base)), nil
	}

	s, err := b.env.Store()
	if err != nil {
		return nil, "", err
	}
	p, err := s.Get(src)
	if err != nil {
		return nil, "", err
	}
	return p, p.ID, nil
}
