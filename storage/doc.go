// Package storage provides object storage with pluggable backends. voiceid
// keeps range-cache entries and the speaker document in it.
//
// # Backends
//
//   - storage/local: local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services
//
// # Configuration
//
//	cache:
//	  storage:
//	    provider: "s3"
//	    bucket: "voiceid-cache"
//	    region: "us-east-1"
package storage
