package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cognicore/ngram/internal/logging"
	"github.com/cognicore/ngram/pkg/ngram"
	"github.com/cognicore/ngram/pkg/ngram/config"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/store"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

type runOptions struct {
	trainPath string
	testPath  string
	loadID    string
	generate  int
	topN      int
	save      bool
	list      bool
}

func main() {
	var (
		configPath = flag.String("config", "", "Model config file (optional)")
		trainPath  = flag.String("train", "", "Training corpus: one sentence of token ids per line")
		testPath   = flag.String("test", "", "Held-out corpus for perplexity (optional)")
		loadID     = flag.String("load", "", "Load a stored snapshot instead of training")
		generate   = flag.Int("generate", 0, "Number of sentences to sample")
		topN       = flag.Int("topn", 0, "Print the N most frequent n-grams")
		save       = flag.Bool("save", false, "Save the trained model as a snapshot")
		list       = flag.Bool("list", false, "List stored snapshots and exit")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger, err := logging.Console(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *trainPath == "" && *loadID == "" && !*list {
		logger.Fatal().Msg("--train or --load required")
	}

	opts := runOptions{
		trainPath: *trainPath,
		testPath:  *testPath,
		loadID:    *loadID,
		generate:  *generate,
		topN:      *topN,
		save:      *save,
		list:      *list,
	}
	if err := run(context.Background(), cfg, opts, os.Stdout, logger); err != nil {
		logger.Fatal().Err(err).Msg("ngram failed")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, out io.Writer, logger zerolog.Logger) error {
	var st store.Store
	if opts.save || opts.loadID != "" || opts.list {
		var err error
		st, err = cfg.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	if opts.list {
		return listSnapshots(ctx, st, out)
	}

	model, err := buildModel(ctx, cfg, st, opts, logger)
	if err != nil {
		return err
	}
	logger.Info().
		Int("order", model.Order()).
		Str("estimator", model.Estimator().Name()).
		Int64("instances", model.VocabSize()).
		Int("prefixes", model.Counts().UniquePrefixes()).
		Msg("model ready")

	if opts.save {
		id, err := st.SaveSnapshot(ctx, model.Snapshot())
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Info().Str("snapshot", id).Msg("saved snapshot")
		fmt.Fprintf(out, "snapshot %s\n", id)
	}

	if opts.topN > 0 {
		fmt.Fprintf(out, "top %d n-grams:\n", opts.topN)
		for _, entry := range model.TopN(opts.topN) {
			fmt.Fprintf(out, "%d\t%s\n", entry.Count, formatTokens(entry.Ngram))
		}
	}

	for i := 0; i < opts.generate; i++ {
		sentence, err := generate(model, cfg.Generation.MaxLength)
		if err != nil {
			if errors.Is(err, internalerr.ErrMaxLength) {
				logger.Warn().Err(err).Int("draw", i).Msg("skipping runaway sentence")
				continue
			}
			return fmt.Errorf("generate: %w", err)
		}
		fmt.Fprintln(out, formatTokens(sentence))
	}

	if opts.testPath != "" {
		test, err := readCorpusFile(opts.testPath, model.Reserved())
		if err != nil {
			return fmt.Errorf("read test corpus: %w", err)
		}
		ppl, err := model.CorpusPerplexity(test)
		if err != nil {
			return fmt.Errorf("perplexity: %w", err)
		}
		fmt.Fprintf(out, "perplexity %.6f over %d sentences\n", ppl, len(test))
	}

	return nil
}

func buildModel(ctx context.Context, cfg *config.Config, st store.Store, opts runOptions, logger zerolog.Logger) (*ngram.Model, error) {
	modelOpts, err := cfg.ModelOptions(&logger)
	if err != nil {
		return nil, err
	}

	if opts.loadID != "" {
		snap, found, err := st.GetSnapshot(ctx, opts.loadID)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if !found {
			return nil, fmt.Errorf("snapshot %s: %w", opts.loadID, internalerr.ErrNotFound)
		}
		// the snapshot carries its own estimator and reserved ids
		modelOpts.Estimator = nil
		modelOpts.Reserved = nil
		return ngram.FromSnapshot(snap, modelOpts)
	}

	train, err := readCorpusFile(opts.trainPath, cfg.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("read training corpus: %w", err)
	}
	return ngram.New(cfg.Order, train, modelOpts)
}

func generate(model *ngram.Model, maxLength int) (vocab.Sentence, error) {
	if maxLength > 0 {
		return model.GenerateSentenceLimit(maxLength)
	}
	return model.GenerateSentence()
}

func listSnapshots(ctx context.Context, st store.Store, out io.Writer) error {
	infos, err := st.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	for _, info := range infos {
		fmt.Fprintf(out, "%s\torder=%d\t%s\talpha=%g\t%s\n",
			info.ID, info.Order, info.Estimator, info.Alpha, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func readCorpusFile(path string, reserved vocab.Reserved) ([]vocab.Sentence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCorpus(f, reserved)
}

// readCorpus parses one sentence of whitespace-separated token ids per line.
// Blank lines and lines starting with # are skipped. A missing leading START
// or trailing END is added.
func readCorpus(r io.Reader, reserved vocab.Reserved) ([]vocab.Sentence, error) {
	var sentences []vocab.Sentence
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		sentence := make(vocab.Sentence, 0, len(fields)+2)
		for _, f := range fields {
			id, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: token %q: %w", lineNo, f, internalerr.ErrInvalidInput)
			}
			sentence = append(sentence, vocab.Token(id))
		}

		if sentence[0] != reserved.Start {
			sentence = append(vocab.Sentence{reserved.Start}, sentence...)
		}
		if sentence[len(sentence)-1] != reserved.End {
			sentence = append(sentence, reserved.End)
		}
		sentences = append(sentences, sentence)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}

func formatTokens(tokens []vocab.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.Itoa(int(t))
	}
	return strings.Join(parts, " ")
}
