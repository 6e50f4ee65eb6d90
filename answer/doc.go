// Package answer turns a retrieval result and a case snippet into a short,
// grounded answer from an ai.Generator.
package answer
