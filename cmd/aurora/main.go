// Command aurora trains the math-score model and predicts with it.
//
//	aurora train   [-config aurora.yml] [-data notebook/data/stud.csv]
//	aurora predict [-config aurora.yml] -gender female -race "group B" \
//	    -education "bachelor's degree" -lunch standard -test-prep none \
//	    -reading 72 -writing 74
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/aurora/config"
	"github.com/YuminosukeSato/aurora/dataset"
	"github.com/YuminosukeSato/aurora/pipeline"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/pkg/log"
)

const defaultData = "notebook/data/stud.csv"

const usage = `usage:
  aurora train   [-config file] [-data file]
  aurora predict [-config file] -gender G -race R -education E -lunch L -test-prep T -reading N -writing N
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "train":
		err = train(ctx, args[1:], stdout, stderr)
	case "predict":
		err = predict(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	var ue *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "%s\n%s", ue.msg, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "error: %s: %v\n", errors.KindOf(err), err)
		return 1
	}
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return &usageError{msg: fmt.Sprintf("unexpected arguments: %v", fs.Args())}
	}
	return nil
}

// setup loads the configuration and installs the process-wide logger.
func setup(path string, stderr io.Writer) (config.Config, log.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	provider, err := log.Setup(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return config.Config{}, nil, errors.NewConfigurationError("log", err.Error())
	}
	return cfg, provider.GetLoggerWithName("aurora"), nil
}

func train(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfgPath := fs.String("config", "aurora.yml", "configuration file")
	data := fs.String("data", defaultData, "raw dataset (CSV with header)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, logger, err := setup(*cfgPath, stderr)
	if err != nil {
		return err
	}
	score, err := pipeline.NewTrainPipeline(cfg, logger).Run(ctx, *data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Training completed. Best model R2 score: %s\n",
		decimal.NewFromFloat(score).StringFixed(4))
	return nil
}

func predict(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfgPath := fs.String("config", "aurora.yml", "configuration file")
	values := map[string]*string{
		dataset.ColGender:                   fs.String("gender", "", "gender"),
		dataset.ColRaceEthnicity:            fs.String("race", "", "race/ethnicity group"),
		dataset.ColParentalLevelOfEducation: fs.String("education", "", "parental level of education"),
		dataset.ColLunch:                    fs.String("lunch", "", "lunch type"),
		dataset.ColTestPreparationCourse:    fs.String("test-prep", "", "test preparation course"),
	}
	reading := fs.Int("reading", -1, "reading score (0-100)")
	writing := fs.Int("writing", -1, "writing score (0-100)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	input := make(map[string]string, len(values)+2)
	for col, v := range values {
		input[col] = *v
	}
	input[dataset.ColReadingScore] = strconv.Itoa(*reading)
	input[dataset.ColWritingScore] = strconv.Itoa(*writing)
	rec, err := dataset.ParseInput(input)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(*cfgPath, stderr)
	if err != nil {
		return err
	}
	pp, err := pipeline.NewPredictPipeline(cfg, logger)
	if err != nil {
		return err
	}
	score, err := pp.Predict(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Predicted math score: %s\n", decimal.NewFromFloat(score).StringFixed(2))
	return nil
}
