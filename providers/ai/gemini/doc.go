// Package gemini implements [ai.Provider] for Google's Gemini generateContent
// endpoint. It answers for the "google" provider id.
package gemini
