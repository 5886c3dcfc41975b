// Package speaker holds known speakers and their enrolled voice embeddings.
//
// Diarization only reads a Store. Enrollment goes through Writer and is
// done by callers outside the diarization run; every enrollment raises
// EmbeddingCount, which identification folds into its cache key.
//
// Three implementations are provided: DocumentStore keeps a single JSON
// document in object storage, SQLStore keeps two tables through gorm, and
// MemoryStore is for tests and one-off runs. All preserve enrollment order.
package speaker
