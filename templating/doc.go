// Package templating renders template files against data files. It reads
// the template (or stdin), loads and merges the data files, layers KEY=VALUE
// overrides on top, and expands "<% key %>" placeholders (or any
// configured delimiter pair) into a file or stdout.
//
// The Engine type holds the delimiters, data files and I/O endpoints.
// Expand renders once; Watch keeps the output in sync with the inputs by
// re-rendering whenever one of them changes on disk.
package templating
