// Package generation defines the boundary to the external Generation Service.
//
// An AudioGenerator turns text into a stored audio artifact and returns the
// artifact's URL. SpeechPipeline is the standard implementation: a
// Synthesizer (Gemini text-to-speech) produces the audio bytes and an
// ArtifactStore (MinIO or Azure Blob Storage) makes them addressable.
package generation
