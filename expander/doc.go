// Package expander substitutes delimited placeholders in a template with
// string values from a data source. Placeholders are bounded by configurable
// opening and closing tags (default "<%" and "%>"); the key is the trimmed
// text between them.
//
// Keys that are absent, or whose value is not a string, expand to the empty
// string. An opening tag without a closing tag is left in the output as
// literal text. Expansion never fails; ExpandTo only reports write errors.
package expander
