/*
Package notestock extracts plain-text posts from notestock export archives.

An export is a zip file holding a single tar stream whose entries, once
concatenated, form the JSON list of posts. Every post carries its HTML in a
"content" field. Extraction drops known spam posts, removes links, code,
preformatted text and quotes, converts the remaining markup to text and
returns one string per non-empty line, ready to be learned by a
markov.Builder.
*/
package notestock
