// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	// client is an *s3.Client from github.com/aws/aws-sdk-go-v2/service/s3.
//	store := s3.NewStore(client, "my-bucket", "checkpoints/")
//
//	exporter := persistence.NewExporter(store, nil, "session-1/")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large checkpoints
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
