// Package output renders sqld-snapshot results as a table, JSON or YAML.
//
// Tables are derived from struct fields: the json tag names the column and
// a `table:"wide"` tag hides the column unless wide output is requested.
package output
