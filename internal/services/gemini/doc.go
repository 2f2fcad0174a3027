// Package gemini is a thin client for the Gemini generateContent API,
// covering the two calls the thumbnail engine needs: multimodal image
// generation and a text-only vision check.
package gemini
