// Package pipeline wires ingestion, feature transformation, candidate
// selection and inference into the two entry points of a run:
// TrainPipeline.Run and PredictPipeline.Predict.
//
// Every artifact is written atomically, so a reader never sees a partially
// written file. Stages run one after another. The first failure aborts the
// run and is returned with its error kind intact (see errors.KindOf).
package pipeline
