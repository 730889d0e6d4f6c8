// Package tagging implements vision-model tag synthesis: one model call
// per committed image, defensive parsing of the free-text tag list, and
// idempotent per-owner tag upsert with set-union attachment.
package tagging
