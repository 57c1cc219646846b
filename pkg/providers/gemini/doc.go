// Package gemini implements the Google Gemini generateContent adapter.
//
// The API key travels in the query string (?key=...), so RequestURL is
// overridden and BuildHeaders carries no credential. Assistant turns are
// sent with role "model" and system turns as "user". Sampling settings go
// into generationConfig with defaults temperature 0.7, topP 1.0 and
// maxOutputTokens 1024.
//
// Model listings are filtered to models that support content generation.
package gemini
