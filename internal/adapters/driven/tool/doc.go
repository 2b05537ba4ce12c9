// Package tool runs the external chunklink script as a subprocess.
//
// The treebank entry is streamed on standard input by default. The file
// transport instead writes it to wsj_0001.mrg inside a fresh temporary
// directory and passes that path as the last argument, which is how the
// script locates WSJ files. The directory is removed after every call, so
// concurrent runs never share a file.
package tool
