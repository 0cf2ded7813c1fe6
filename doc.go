// Package aurora trains and serves a regression model that predicts a
// student's math score from demographic attributes and the reading and
// writing scores.
//
// A training run ingests a CSV dataset, splits it 80/20 with a fixed seed,
// fits a feature transformer on the training portion and evaluates nine
// candidate regressors on the same matrices. The candidate with the best
// held-out R² is persisted when it clears the quality threshold (0.6 by
// default). Inference loads the persisted transformer and model and scores
// a single validated record.
//
// # Quick Start
//
//	cfg, err := config.Load("aurora.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	score, err := pipeline.NewTrainPipeline(cfg, nil).Run(ctx, "notebook/data/stud.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("best R² %.4f\n", score)
//
//	pp, err := pipeline.NewPredictPipeline(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rec, _ := dataset.ParseInput(map[string]string{
//	    "gender": "female", "race_ethnicity": "group B",
//	    "parental_level_of_education": "bachelor's degree",
//	    "lunch": "standard", "test_preparation_course": "none",
//	    "reading_score": "72", "writing_score": "74",
//	})
//	math, err := pp.Predict(rec)
//
// # Packages
//
//   - pipeline: ingestion, training, candidate selection and inference
//   - dataset: record schema, validation, CSV I/O and the train/test split
//   - features: scaling and one-hot encoding into model matrices
//   - sklearn/*: the nine candidate regressors (linear_model, neighbors,
//     tree, ensemble, svm)
//   - metrics: R², MSE, RMSE, MAE
//   - preprocessing: StandardScaler and OneHotEncoder
//   - core/model: estimator interfaces, fitted state and gob persistence
//   - core/parallel: row-range parallelism helpers
//   - config: YAML + environment configuration
//   - report: predicted-vs-actual plots
//   - pkg/errors, pkg/log, pkg/telemetry: error taxonomy, logging, metrics
//
// The aurora command (cmd/aurora) exposes train and predict subcommands.
package aurora
