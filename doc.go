// Package wgsport converts a game's save data from the Windows container
// save store (a containers.index file plus GUID-named container
// directories) into the flat-file save layout the PC build of the game
// reads.
//
// A conversion has three stages:
//   - the container index is parsed and the containers holding full world
//     saves are selected (backup copies are skipped),
//   - each selected container's data blob is parsed as the embedded game
//     archive: a virtual file table plus one compressed payload,
//   - the decompressed payload is re-split by the table's declared sizes
//     and each typed entry is written as an individual platform save file,
//     prefixed with a captured template header and a synthesized
//     per-type sub-header.
//
// Convert and List are the two entry points; both are driven by a
// Converter configured with functional options.
package wgsport
