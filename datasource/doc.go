// Package datasource loads the key-value mappings that templates are
// expanded against. Data files may be JSON, YAML, TOML or Bazel
// workspace-status ("stamp") files; the format is picked from the file
// extension. Several files merge left to right, and KEY=VALUE assignments
// can be layered on top.
//
// Values keeps whatever the decoder produced, but only string values are
// visible through Values.String, which is what the expander consults.
package datasource
