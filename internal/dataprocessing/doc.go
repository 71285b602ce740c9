// Package dataprocessing implements the GL ingestion pipeline: reading
// raw Excel exports, detecting which of the two known dialects produced
// them, extracting and flattening the transaction structure,
// normalizing dates and amounts into canonical transactions, and
// validating the unified result.
//
// Stages are pure transformations over the prior stage's output and are
// composed per file by Pipeline. Files within one run are parsed
// independently and concatenated in submission order so that row IDs
// and downstream range references are reproducible across repeated runs
// on identical input.
package dataprocessing
