// Package source opens data files as chunked row readers.
//
// A data file is addressed by URL: a local path, file://, http(s)://,
// s3://bucket/key or postgres: (rows of an SQL query). The compression
// (gz, zip, tgz) and format (csv, txt, tsv, json, ndjson) are taken from
// the file name unless set explicitly. Archives yield their last member.
package source
