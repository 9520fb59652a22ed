// Package storage implements generation.ArtifactStore on object storage.
// MinIO (or any S3-compatible endpoint) and Azure Blob Storage are supported;
// New picks one from configuration.
package storage
