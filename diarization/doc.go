// Package diarization assigns speaker labels to transcript units using voice
// embeddings.
//
// A run embeds every unit over a small context window, folds the ordered
// embeddings into speaker turns (SequentialSegmenter), groups turns by
// average-linkage clustering under a distance threshold (ClusterEngine),
// and names each cluster by comparing its centroid with the enrolled
// embeddings of known speakers (Identifier). Unmatched clusters keep an
// anonymous SPEAKER_<id> label.
//
// Engine wires the stages for one Strategy and puts a rangecache in front of
// each of transcription, diarization and identification, so repeated
// requests over a growing time range only recompute what is not covered.
//
//	engine, err := diarization.NewEngine(opts, embedder, speakers,
//	    diarization.WithTranscriber(whisperProvider),
//	    diarization.WithLogger(log))
//	resp, err := engine.Diarize(ctx, diarization.DiarizationRequest{
//	    AudioPath: "episode-12.wav", SourceID: "episode-12", End: 600,
//	})
//
// Only a failure to load the embedding model aborts a run. Units whose
// embedding fails are dropped and counted in RunStats.Skipped.
package diarization
