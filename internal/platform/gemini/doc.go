// Package gemini implements generation.Synthesizer on Google's Gemini
// text-to-speech models through the google.golang.org/genai SDK.
//
// Gemini returns raw 16-bit PCM; the synthesizer wraps it in a WAV container
// so the stored artifact plays in browsers as-is.
package gemini
