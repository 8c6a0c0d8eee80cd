// Package hcl provides the HCL implementation of config.Loader. Run files
// are parsed with hclparse, decoded with gohcl and may refer to environment
// variables through the env object, e.g. `points = "${env.DATA_DIR}/p.csv"`.
package hcl
