// Package config defines the format-agnostic run model of floodpath, along
// with the Loader interface implemented by the HCL and YAML packages.
//
// A Model names the input rasters, the candidate tables, the output
// location and the analysis options. Locations are either local paths or
// s3://bucket/key URLs; relative local paths are resolved against the
// directory of the file that declared them.
package config
