// Package main provides a command line program that trains a batch
// Self-Organizing Map on a CSV data set and writes the grid cell of every
// case as CSV, optionally drawing the map as an SVG diagram.
//
// Usage:
//
//	som [flags] input.csv
//
// The input is read from stdin when the path is "-" or missing.
package main
